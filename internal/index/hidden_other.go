//go:build !windows && !darwin

package index

// Other platforms only hide entries by a leading dot, which the name rules cover.
func isHidden(string) (bool, error) {
	return false, nil
}
