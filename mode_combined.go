//go:build !split

package bluenoise

// DefaultMode is the output mode the command generates. Build with the split
// tag to switch to Split.
const DefaultMode = Combined
