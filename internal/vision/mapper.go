package vision

import "github.com/TajGordon/rcj-nats-sub000/pkg/geometry"

// normalizedErrors maps a crop-local point to its offset from the mirror
// center, normalized by the center coordinates: negative left/above,
// positive right/below, roughly [-1, 1] inside the mirror. Values are not
// clamped and may exceed that range near the crop corners. The center is
// never zero here; Validate rejects configs that could produce one.
func normalizedErrors(x, y float64, center geometry.PointInt) (hErr, vErr float64) {
	hErr = (x - float64(center.X)) / float64(center.X)
	vErr = (y - float64(center.Y)) / float64(center.Y)
	return hErr, vErr
}
