package render

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// fontKey uniquely identifies a font face by name, size, bold, and italic.
type fontKey struct {
	name   string
	size   float64
	bold   bool
	italic bool
}

// FontCache manages TrueType font loading and face caching. It searches
// system font directories and user-specified directories for .ttf/.otf
// files, then caches parsed fonts and rendered faces. Safe for reuse
// across every slide of a run.
type FontCache struct {
	mu      sync.RWMutex
	dirs    []string
	fonts   map[string]*opentype.Font // lowercase font name -> parsed font
	faces   map[fontKey]font.Face
	scanned bool
}

// NewFontCache creates a FontCache that searches the given directories
// plus the OS default font directories.
func NewFontCache(extraDirs ...string) *FontCache {
	return &FontCache{
		dirs:  append(systemFontDirs(), extraDirs...),
		fonts: make(map[string]*opentype.Font),
		faces: make(map[fontKey]font.Face),
	}
}

// GetFace returns a font.Face for the given font properties, or nil if no
// matching TrueType font could be found.
func (fc *FontCache) GetFace(name string, sizePt float64, bold, italic bool) font.Face {
	fc.ensureScanned()

	key := fontKey{name: strings.ToLower(name), size: sizePt, bold: bold, italic: italic}

	fc.mu.RLock()
	if face, ok := fc.faces[key]; ok {
		fc.mu.RUnlock()
		return face
	}
	fc.mu.RUnlock()

	f := fc.findFont(name, bold, italic)
	if f == nil {
		return nil
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePt,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil
	}

	fc.mu.Lock()
	fc.faces[key] = face
	fc.mu.Unlock()
	return face
}

// LoadFontData registers a TrueType/OpenType font from raw bytes under the
// given name. Used by tests and callers bundling their own fonts.
func (fc *FontCache) LoadFontData(name string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return err
	}
	fc.mu.Lock()
	fc.fonts[strings.ToLower(name)] = f
	fc.registerByFamilyName(f)
	fc.mu.Unlock()
	return nil
}

// findFont looks up a parsed font by name, trying style-specific variants
// first. Windows font files use names like "arialbd" and "ariali".
func (fc *FontCache) findFont(name string, bold, italic bool) *opentype.Font {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	lower := strings.ToLower(name)

	if bold && italic {
		for _, suffix := range []string{" bold italic", "bi", " bolditalic", "z"} {
			if f, ok := fc.fonts[lower+suffix]; ok {
				return f
			}
		}
	}
	if bold {
		for _, suffix := range []string{" bold", "bd", "b"} {
			if f, ok := fc.fonts[lower+suffix]; ok {
				return f
			}
		}
	}
	if italic {
		for _, suffix := range []string{" italic", "i", " it"} {
			if f, ok := fc.fonts[lower+suffix]; ok {
				return f
			}
		}
	}
	if f, ok := fc.fonts[lower]; ok {
		return f
	}
	return nil
}

func (fc *FontCache) ensureScanned() {
	fc.mu.RLock()
	scanned := fc.scanned
	fc.mu.RUnlock()
	if scanned {
		return
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.scanned {
		return
	}
	fc.scanned = true

	for _, dir := range fc.dirs {
		fc.scanDirDepth(dir, 0)
	}
}

// maxFontScanDepth limits recursive directory traversal when scanning.
const maxFontScanDepth = 3

// maxFontFileSize limits the size of individual font files loaded into memory.
const maxFontFileSize = 20 << 20 // 20 MB

func (fc *FontCache) scanDirDepth(dir string, depth int) {
	if depth > maxFontScanDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			fc.scanDirDepth(filepath.Join(dir, entry.Name()), depth+1)
			continue
		}
		lower := strings.ToLower(entry.Name())
		if !strings.HasSuffix(lower, ".ttf") && !strings.HasSuffix(lower, ".otf") {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.Size() > maxFontFileSize {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		f, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		fc.fonts[strings.TrimSuffix(lower, filepath.Ext(lower))] = f
		fc.registerByFamilyName(f)
	}
}

// registerByFamilyName registers the font under its internal family and
// full names so PPTX typeface references resolve.
func (fc *FontCache) registerByFamilyName(f *opentype.Font) {
	if familyName, err := f.Name(nil, sfnt.NameIDFamily); err == nil && familyName != "" {
		fc.fonts[strings.ToLower(familyName)] = f
	}
	if fullName, err := f.Name(nil, sfnt.NameIDFull); err == nil && fullName != "" {
		fc.fonts[strings.ToLower(fullName)] = f
	}
}

// systemFontDirs returns OS-specific font directories.
func systemFontDirs() []string {
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs := []string{filepath.Join(windir, "Fonts")}
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			dirs = append(dirs, filepath.Join(localAppData, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	case "darwin":
		dirs := []string{"/System/Library/Fonts", "/Library/Fonts"}
		if home, _ := os.UserHomeDir(); home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	default: // linux, freebsd, etc.
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home, _ := os.UserHomeDir(); home != "" {
			dirs = append(dirs,
				filepath.Join(home, ".local", "share", "fonts"),
				filepath.Join(home, ".fonts"))
		}
		return dirs
	}
}
