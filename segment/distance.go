package segment

import "math"

// MaxColorDistance 两个 RGB 颜色之间可能的最大欧氏距离 (sqrt(3)*255 ≈ 441.67)
var MaxColorDistance = math.Sqrt(3 * 255 * 255)

// ColorDistance RGB 空间欧氏距离，忽略 alpha
//
// 采样器与分类器必须共用这一个度量。
func ColorDistance(a, b Color) float64 {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return math.Sqrt(float64(dr*dr + dg*dg + db*db))
}

// isBackground 背景判定：距离严格小于阈值；阈值 <= 0 时只接受完全相等的颜色
func isBackground(c, ref Color, sensitivity float64) bool {
	d := ColorDistance(c, ref)
	if sensitivity <= 0 {
		return d == 0
	}
	return d < sensitivity
}
