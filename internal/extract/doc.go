// Package extract turns files into the plain character streams the chunker
// consumes. Document formats are not parsed: text files are read as UTF-8
// or UTF-16, anything else goes through a strings(1)-style filter that keeps
// runs of printable characters.
package extract
