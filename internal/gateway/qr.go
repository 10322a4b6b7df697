package gateway

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// RenderQR shows the pairing code in the terminal and writes the PNG
// the operator /qrcode endpoint serves. The PNG write failing is not
// fatal: the terminal rendering already happened.
func RenderQR(code, pngPath string) error {
	qrterminal.GenerateHalfBlock(code, qrterminal.L, os.Stdout)
	return writeQRPNG(code, pngPath)
}

func writeQRPNG(code, path string) error {
	c, err := qr.Encode(code, qr.H)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create qr dir: %w", err)
		}
	}
	if err := os.WriteFile(path, c.PNG(), 0o644); err != nil {
		return fmt.Errorf("write qr png: %w", err)
	}
	return nil
}
