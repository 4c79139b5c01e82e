package classify

import "strings"

// Platform is the OS family an asset targets.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"
	PlatformMacOS   Platform = "macos"
	PlatformUnknown Platform = "unknown"
)

// Arch is the CPU architecture an asset targets.
type Arch string

const (
	ArchUniversal Arch = "universal"
	ArchArm32     Arch = "arm32"
	ArchArm64     Arch = "arm64"
	ArchX64       Arch = "x64"
	ArchX32       Arch = "x32"
	ArchUnknown   Arch = "unknown"
)

// Graphics is the display mode of an asset build.
type Graphics string

const (
	GraphicsTiles   Graphics = "tiles"
	GraphicsASCII   Graphics = "ascii"
	GraphicsUnknown Graphics = "unknown"
)

// Sound is the audio mode of an asset build.
type Sound string

const (
	SoundSounds  Sound = "sounds"
	SoundUnknown Sound = "unknown"
)

// AllPlatforms returns every valid platform value in canonical order.
func AllPlatforms() []Platform {
	return []Platform{PlatformAndroid, PlatformWindows, PlatformLinux, PlatformMacOS, PlatformUnknown}
}

// AllArchs returns every valid architecture value in canonical order.
func AllArchs() []Arch {
	return []Arch{ArchUniversal, ArchArm32, ArchArm64, ArchX64, ArchX32, ArchUnknown}
}

// AllGraphics returns every valid graphics value in canonical order.
func AllGraphics() []Graphics {
	return []Graphics{GraphicsTiles, GraphicsASCII, GraphicsUnknown}
}

// AllSounds returns every valid sound value in canonical order.
func AllSounds() []Sound {
	return []Sound{SoundSounds, SoundUnknown}
}

// PlatformOf infers the platform from an asset filename. First matching
// rule wins; unmatched filenames classify as unknown.
func PlatformOf(filename string) Platform {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "android") || strings.HasSuffix(name, ".apk"):
		return PlatformAndroid
	case strings.Contains(name, "windows") || strings.HasSuffix(name, ".zip"):
		return PlatformWindows
	case strings.Contains(name, "linux") || strings.HasSuffix(name, ".tar.gz"):
		return PlatformLinux
	case containsAny(name, "osx", "macos") || strings.HasSuffix(name, ".dmg"):
		return PlatformMacOS
	}
	return PlatformUnknown
}

// ArchOf infers the CPU architecture from an asset filename.
//
// The rule order is part of the database contract and must not change:
// a bare "arm" substring classifies as arm64 before the x64/x32 rules
// are ever reached, so a name containing both "arm" and "x64" is arm64.
func ArchOf(filename string) Arch {
	name := strings.ToLower(filename)
	switch {
	case containsAny(name, "universal", "bundle"):
		return ArchUniversal
	case containsAny(name, "arm32", "aarch32", "android-x32"):
		return ArchArm32
	case containsAny(name, "arm64", "aarch64", "android-x64", "arm"):
		return ArchArm64
	case containsAny(name, "x64", "amd64"):
		return ArchX64
	case containsAny(name, "x32", "x86"):
		return ArchX32
	}
	return ArchUnknown
}

// GraphicsOf infers the display mode from an asset filename. Android
// builds always ship tiles.
func GraphicsOf(filename string) Graphics {
	name := strings.ToLower(filename)
	switch {
	case containsAny(name, "with-graphics", "graphics", "tiles", "android"):
		return GraphicsTiles
	case containsAny(name, "ascii", "curses", "terminal-only"):
		return GraphicsASCII
	}
	return GraphicsUnknown
}

// SoundOf infers the audio mode from an asset filename.
func SoundOf(filename string) Sound {
	name := strings.ToLower(filename)
	if containsAny(name, "with-sounds", "sounds", "and-sounds") {
		return SoundSounds
	}
	return SoundUnknown
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
