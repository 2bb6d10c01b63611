// Package subtitle parses SRT, VTT, and ASS/SSA subtitle files into
// normalized time-bounded cues, stripping inline markup and filtering
// mixed-language releases down to the study language's script.
package subtitle
