package jpeg2000

// Library version. Bumped on releases only.
const (
	versionMajor = 1
	versionMinor = 0
	versionPatch = 0
)

// GetVersion returns the decoder library version. It is pure and
// stable across calls.
func GetVersion() (major, minor, patch int) {
	return versionMajor, versionMinor, versionPatch
}
