//go:build wasm

package serial

func openTarm(cfg *Config) (Port, error) {
	return nil, ErrBackendUnavailable
}
