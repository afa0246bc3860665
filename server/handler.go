package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chaos-io/cutout/cache"
	"github.com/chaos-io/cutout/codec"
	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/params"
	"github.com/chaos-io/cutout/segment"
	"github.com/chaos-io/cutout/util"
	uhttp "github.com/chaos-io/cutout/util/http"
	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

var resultKeyPattern = regexp.MustCompile(`^[0-9a-f]{32}-[0-9a-f]{32}$`)

// ErrBackdropURLDisabled 服务端未开启 backdrop_url
var ErrBackdropURLDisabled = errors.New("backdrop_url is disabled on this server")

// SegmentHandler 抠图接口
type SegmentHandler struct {
	cfg     *config.Config
	cache   cache.ResultCache
	client  uhttp.IClient
	limiter *Limiter
}

func NewSegmentHandler(cfg *config.Config, rc cache.ResultCache, client uhttp.IClient) *SegmentHandler {
	if rc == nil {
		rc = cache.Nop{}
	}
	if client == nil {
		client = uhttp.NewHTTPClient(uhttp.WithPublicOnly())
	}
	return &SegmentHandler{
		cfg:     cfg,
		cache:   rc,
		client:  client,
		limiter: NewLimiter(cfg.Segment.MaxConcurrent, cfg.Segment.QueueTimeout),
	}
}

// segmentRequest 解析后的一次请求
type segmentRequest struct {
	engine  segment.Config
	bg      segment.Background
	format  codec.Format
	quality int
	// optionsMD5 参与缓存键，覆盖所有影响输出的参数
	optionsMD5 string
}

// failedSource 背景图获取失败，交给合成阶段回退为透明
type failedSource struct {
	err error
}

func (s failedSource) Load() (image.Image, error) {
	return nil, s.err
}

// Segment 上传图片，返回抠图合成结果
func (h *SegmentHandler) Segment(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString(requestIDKey)

	file, err := c.FormFile("image")
	if err != nil {
		util.Logger.Error("failed to get uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "请上传图片文件",
			Error:   err.Error(),
		})
		return
	}

	if msg, ok := h.checkUpload(file); !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: msg})
		return
	}

	var form segmentForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "参数错误",
			Error:   err.Error(),
		})
		return
	}

	req, err := h.parseRequest(c, &form)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "参数错误",
			Error:   err.Error(),
		})
		return
	}

	// 保存上传文件，处理完成后删除；残留文件由定时清理任务兜底
	if err := os.MkdirAll(h.cfg.Upload.UploadDir, 0755); err != nil {
		util.Logger.Error("failed to create upload directory", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Message: "保存文件失败",
			Error:   err.Error(),
		})
		return
	}
	savePath := filepath.Join(h.cfg.Upload.UploadDir, ksuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		util.Logger.Error("failed to save file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Message: "保存文件失败",
			Error:   err.Error(),
		})
		return
	}
	defer func() {
		if err := os.Remove(savePath); err != nil {
			util.Logger.Warn("failed to delete temp file", zap.String("file", savePath), zap.Error(err))
		}
	}()

	imageMD5, err := util.FileMD5(savePath)
	if err != nil {
		util.Logger.Error("failed to calculate md5", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Message: "计算文件哈希失败",
			Error:   err.Error(),
		})
		return
	}

	key := cache.Key(imageMD5, req.optionsMD5)
	util.Logger.Info("file uploaded",
		zap.String("request_id", requestID),
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
		zap.String("result_key", key))

	cached, err := h.cache.Get(ctx, key)
	if err != nil {
		util.Logger.Warn("failed to get cache", zap.Error(err))
	}
	if cached != nil {
		util.Logger.Info("cache hit", zap.String("result_key", key))
		c.Header("X-Cache", "HIT")
		writeEntry(c, key, cached)
		return
	}

	img, srcFormat, err := decodeFile(savePath)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "无法解析图片",
			Error:   err.Error(),
		})
		return
	}

	release, err := h.limiter.Acquire(ctx)
	if err != nil {
		util.Logger.Warn("segment queue rejected", zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Success: false,
			Message: "服务繁忙，请稍后再试",
			Error:   err.Error(),
		})
		return
	}
	engine := &segment.Engine{Config: req.engine, Background: req.bg}
	start := time.Now()
	res, err := engine.Run(ctx, img)
	release()
	if err != nil {
		util.Logger.Error("failed to process image", zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Message: "图片处理失败",
			Error:   err.Error(),
		})
		return
	}
	if res.BackdropErr != nil {
		util.Logger.Warn("backdrop unavailable, fell back to transparent",
			zap.String("request_id", requestID),
			zap.Error(res.BackdropErr))
	}

	data, err := codec.EncodeBytes(res.Image, req.format, req.quality)
	if err != nil {
		util.Logger.Error("failed to encode result", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Message: "编码结果失败",
			Error:   err.Error(),
		})
		return
	}

	util.Logger.Info("image segmented",
		zap.String("request_id", requestID),
		zap.String("source_format", srcFormat),
		zap.Int("width", res.Image.Width),
		zap.Int("height", res.Image.Height),
		zap.Float64("scale", res.Scale),
		zap.Float64("foreground_ratio", res.Stats.ForegroundRatio),
		zap.String("reference", res.Reference.String()),
		zap.Duration("cost", time.Since(start)))

	entry := &cache.Entry{
		ContentType:     req.format.ContentType(),
		Data:            data,
		Width:           res.Image.Width,
		Height:          res.Image.Height,
		ForegroundRatio: res.Stats.ForegroundRatio,
		Reference:       res.Reference.String(),
		Timestamp:       time.Now().Unix(),
	}
	// 背景回退的结果不缓存，背景恢复后重新渲染
	if res.BackdropErr != nil {
		c.Header("X-Cache", "BYPASS")
		writeEntry(c, key, entry)
		return
	}
	if err := h.cache.Set(ctx, key, entry); err != nil {
		util.Logger.Warn("failed to set cache", zap.Error(err))
	}
	if err := h.saveOutput(key, req.format, data); err != nil {
		util.Logger.Warn("failed to save output", zap.String("result_key", key), zap.Error(err))
	}

	c.Header("X-Cache", "MISS")
	writeEntry(c, key, entry)
}

// GetResult 按结果键取回之前的合成结果，先查缓存再查输出目录
func (h *SegmentHandler) GetResult(c *gin.Context) {
	key := c.Param("key")
	if !resultKeyPattern.MatchString(key) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "结果键格式错误",
		})
		return
	}

	entry, err := h.cache.Get(c.Request.Context(), key)
	if err != nil {
		util.Logger.Warn("failed to get cache", zap.Error(err))
	}
	if entry != nil {
		writeEntry(c, key, entry)
		return
	}

	for _, f := range []codec.Format{codec.PNG, codec.JPEG} {
		data, err := os.ReadFile(filepath.Join(h.cfg.Output.Dir, key+f.Ext()))
		if err != nil {
			continue
		}
		c.Header("X-Result-Key", key)
		c.Data(http.StatusOK, f.ContentType(), data)
		return
	}

	c.JSON(http.StatusNotFound, ErrorResponse{
		Success: false,
		Message: "未找到该结果",
	})
}

func (h *SegmentHandler) checkUpload(file *multipart.FileHeader) (string, bool) {
	if h.cfg.Upload.MaxSize > 0 && file.Size > h.cfg.Upload.MaxSize {
		return fmt.Sprintf("文件大小超过限制 (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)), false
	}
	if !h.isAllowedType(file.Header.Get("Content-Type")) {
		return "不支持的文件类型", false
	}
	return "", true
}

func (h *SegmentHandler) isAllowedType(contentType string) bool {
	if len(h.cfg.Upload.AllowedTypes) == 0 {
		return true
	}
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}

// parseRequest 合并服务默认值与表单参数
func (h *SegmentHandler) parseRequest(c *gin.Context, form *segmentForm) (*segmentRequest, error) {
	limits := h.cfg.Segment
	cfg := limits.Engine()
	if form.Sensitivity != nil {
		cfg.Sensitivity = *form.Sensitivity
	}
	// 表单只能在服务端上限内调小尺寸和半径，0 表示沿用配置
	if form.MaxDimension != nil && *form.MaxDimension > 0 {
		cfg.MaxDimension = capAt(*form.MaxDimension, limits.MaxDimension)
	}
	if form.SoftenRadius != nil {
		cfg.SoftenRadius = capAt(*form.SoftenRadius, limits.MaxSoftenRadius)
	}
	if form.SampleStride != nil {
		cfg.SampleStride = *form.SampleStride
	}

	mode, err := params.ParseMode(form.Mode, form.Fill)
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode

	formatName := form.Format
	if formatName == "" {
		formatName = h.cfg.Output.Format
	}
	format, err := codec.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	quality := h.cfg.Output.JPEGQuality
	if quality <= 0 {
		quality = codec.DefaultJPEGQuality
	}

	opts := params.BackgroundOptions{
		Kind:   form.Background,
		Color:  form.Color,
		Stops:  form.Stops,
		Angle:  form.Angle,
		Center: form.Center,
	}
	backdropTag := ""
	if strings.EqualFold(strings.TrimSpace(form.Background), params.BackgroundImage) {
		opts.Source, backdropTag, err = h.backdropSource(c, form.BackdropURL)
		if err != nil {
			return nil, err
		}
	}
	bg, err := params.ParseBackground(opts)
	if err != nil {
		return nil, err
	}

	cfg = cfg.Normalized()
	fingerprint := fmt.Sprintf("%g|%d|%d|%d|%d|%s|%s|%s|%s|%g|%s|%s|%s|%d",
		cfg.Sensitivity, cfg.MaxDimension, cfg.SampleStride, cfg.SoftenRadius,
		cfg.Mode.Kind, cfg.Mode.Fill, strings.ToLower(form.Background), form.Color, form.Stops,
		form.Angle, form.Center, backdropTag, format, quality)

	return &segmentRequest{
		engine:     cfg,
		bg:         bg,
		format:     format,
		quality:    quality,
		optionsMD5: util.BytesMD5([]byte(fingerprint)),
	}, nil
}

// backdropSource 背景图来自上传字段 backdrop 或 backdrop_url，返回来源及其内容摘要
//
// 下载失败不算请求错误，返回 failedSource 让合成阶段回退。
func (h *SegmentHandler) backdropSource(c *gin.Context, backdropURL string) (segment.ImageSource, string, error) {
	if fh, err := c.FormFile("backdrop"); err == nil {
		if h.cfg.Upload.MaxSize > 0 && fh.Size > h.cfg.Upload.MaxSize {
			return nil, "", fmt.Errorf("backdrop exceeds %d bytes", h.cfg.Upload.MaxSize)
		}
		data, err := readFormFile(fh)
		if err != nil {
			return nil, "", err
		}
		return segment.EncodedSource{Data: data}, "backdrop:" + util.BytesMD5(data), nil
	}

	if backdropURL == "" {
		return nil, "", params.ErrMissingBackdrop
	}
	if !h.cfg.Upload.AllowBackdropURL {
		return nil, "", ErrBackdropURLDisabled
	}
	if err := uhttp.CheckPublicURL(backdropURL); err != nil {
		return nil, "", err
	}

	data, err := h.fetchBackdrop(c.Request.Context(), backdropURL)
	if err != nil {
		util.Logger.Warn("failed to fetch backdrop", zap.String("url", backdropURL), zap.Error(err))
		return failedSource{err: err}, "unavailable:" + backdropURL, nil
	}
	return segment.EncodedSource{Data: data}, "backdrop:" + util.BytesMD5(data), nil
}

func (h *SegmentHandler) fetchBackdrop(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := h.client.DoHTTPRequest(ctx, &uhttp.RequestParam{
		RequestURI:       url,
		Method:           http.MethodGet,
		Response:         &body,
		Timeout:          h.cfg.Upload.BackdropURLTimeout,
		MaxResponseBytes: h.cfg.Upload.MaxSize,
	})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New("empty backdrop response")
	}
	return body, nil
}

func (h *SegmentHandler) saveOutput(key string, format codec.Format, data []byte) error {
	if h.cfg.Output.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(h.cfg.Output.Dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(h.cfg.Output.Dir, key+format.Ext()), data, 0644)
}

// capAt limit <= 0 表示不限制
func capAt(v, limit int) int {
	if limit <= 0 {
		return v
	}
	return min(v, limit)
}

func writeEntry(c *gin.Context, key string, entry *cache.Entry) {
	c.Header("X-Result-Key", key)
	c.Header("X-Foreground-Ratio", strconv.FormatFloat(entry.ForegroundRatio, 'f', 4, 64))
	c.Header("X-Reference-Color", entry.Reference)
	c.Data(http.StatusOK, entry.ContentType, entry.Data)
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func decodeFile(path string) (*segment.RasterImage, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return codec.Decode(f)
}
