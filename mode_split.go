//go:build split

package bluenoise

const DefaultMode = Split
