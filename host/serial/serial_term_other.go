//go:build !(linux || darwin)

package serial

func openTerm(cfg *Config) (Port, error) {
	return nil, ErrBackendUnavailable
}
