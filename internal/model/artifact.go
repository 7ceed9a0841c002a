package model

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	PackageExtension       = ".nupkg"
	SymbolPackageExtension = ".snupkg"
	legacySymbolsSuffix    = ".symbols.nupkg"
)

// Artifact is a locally built package file.
type Artifact struct {
	Path string
}

// Name returns the file name of the artifact.
func (a Artifact) Name() string {
	return filepath.Base(a.Path)
}

// IsSymbolPackage reports whether the artifact is itself a symbol package.
func (a Artifact) IsSymbolPackage() bool {
	name := strings.ToLower(a.Name())
	return strings.HasSuffix(name, SymbolPackageExtension) || strings.HasSuffix(name, legacySymbolsSuffix)
}

// SymbolCandidates lists where the companion symbol package would live,
// in lookup order: foo.snupkg first, then the legacy foo.symbols.nupkg.
func (a Artifact) SymbolCandidates() []string {
	if a.IsSymbolPackage() {
		return nil
	}
	ext := filepath.Ext(a.Path)
	if !strings.EqualFold(ext, PackageExtension) {
		return nil
	}
	base := strings.TrimSuffix(a.Path, ext)
	return []string{base + SymbolPackageExtension, base + legacySymbolsSuffix}
}

// SymbolsPath returns the first existing companion symbol package.
func (a Artifact) SymbolsPath() (string, bool) {
	for _, candidate := range a.SymbolCandidates() {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
