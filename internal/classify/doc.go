// Package classify maps a single dump line to a semantic tag.
//
// Classification is driven by Rules, an ordered table of patterns evaluated
// top to bottom where the first match wins. The order matters because the
// patterns overlap: a versioned conditional SET comment is a header line
// before any database context and a low-importance statement afterwards.
//
// The package holds no state. Whether header rules apply is decided by the
// caller, which knows its position in the stream.
package classify
