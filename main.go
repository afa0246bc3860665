package main

import (
	"github.com/chaos-io/cutout/cmd"
	"github.com/chaos-io/cutout/server"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

func main() {
	cmd.Execute(server.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
	})
}
