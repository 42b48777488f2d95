// Package patchfile handles the two on-disk formats mw4ctl reads and
// writes: YAML patch files (one program, parameters keyed by name) and
// raw .syx files (concatenated SysEx frames, the lingua franca of patch
// librarians).
package patchfile
