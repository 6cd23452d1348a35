package classify

// The built-in extension table is a static, data-driven lookup: a plain
// map keyed by normalized extension. Sniff-based overrides (BOM detection,
// binary heuristics) are applied by the Classifier after table lookup.

type tableEntry struct {
	class Classification
	mode  SearchMode
}

// compressedExts lists extensions handled by the transparent
// decompression path in internal/source.
var compressedExts = map[string]struct{}{
	"gz":   {},
	"gzip": {},
	"zst":  {},
	"zstd": {},
	"lz4":  {},
}

// archiveExts lists container formats whose entries are enumerated and
// searched individually by internal/source.
var archiveExts = map[string]struct{}{
	"zip": {},
	"jar": {},
	"tar": {},
	"tgz": {},
}

// IsArchivePath reports whether the path names a searchable archive
// container. A .tar.gz double extension counts as an archive, not as a
// plain gzip stream.
func IsArchivePath(path string) bool {
	ext := ExtOf(path)
	if _, ok := archiveExts[ext]; ok {
		return true
	}
	if ext == "gz" || ext == "gzip" {
		inner := ExtOf(trimExt(path))
		return inner == "tar"
	}
	return false
}

func trimExt(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[:i]
		}
		if path[i] == '/' || path[i] == '\\' {
			break
		}
	}
	return path
}

var extensionTable = map[string]tableEntry{
	// Source code — always searched as full text.
	"asm":   {AlwaysSearch, ModeFullText},
	"c":     {AlwaysSearch, ModeFullText},
	"cc":    {AlwaysSearch, ModeFullText},
	"cpp":   {AlwaysSearch, ModeFullText},
	"cs":    {AlwaysSearch, ModeFullText},
	"css":   {AlwaysSearch, ModeFullText},
	"dart":  {AlwaysSearch, ModeFullText},
	"ex":    {AlwaysSearch, ModeFullText},
	"exs":   {AlwaysSearch, ModeFullText},
	"go":    {AlwaysSearch, ModeFullText},
	"h":     {AlwaysSearch, ModeFullText},
	"hpp":   {AlwaysSearch, ModeFullText},
	"hs":    {AlwaysSearch, ModeFullText},
	"html":  {AlwaysSearch, ModeFullText},
	"java":  {AlwaysSearch, ModeFullText},
	"js":    {AlwaysSearch, ModeFullText},
	"jsx":   {AlwaysSearch, ModeFullText},
	"kt":    {AlwaysSearch, ModeFullText},
	"lua":   {AlwaysSearch, ModeFullText},
	"m":     {AlwaysSearch, ModeFullText},
	"php":   {AlwaysSearch, ModeFullText},
	"pl":    {AlwaysSearch, ModeFullText},
	"py":    {AlwaysSearch, ModeFullText},
	"r":     {AlwaysSearch, ModeFullText},
	"rb":    {AlwaysSearch, ModeFullText},
	"rs":    {AlwaysSearch, ModeFullText},
	"scala": {AlwaysSearch, ModeFullText},
	"sh":    {AlwaysSearch, ModeFullText},
	"sql":   {AlwaysSearch, ModeFullText},
	"swift": {AlwaysSearch, ModeFullText},
	"ts":    {AlwaysSearch, ModeFullText},
	"tsx":   {AlwaysSearch, ModeFullText},
	"vue":   {AlwaysSearch, ModeFullText},
	"zig":   {AlwaysSearch, ModeFullText},

	// Plain text and documentation.
	"adoc":     {AlwaysSearch, ModeFullText},
	"markdown": {AlwaysSearch, ModeFullText},
	"md":       {AlwaysSearch, ModeFullText},
	"rst":      {AlwaysSearch, ModeFullText},
	"txt":      {AlwaysSearch, ModeFullText},

	// Structured data.
	"csv":  {AlwaysSearch, ModeStructured},
	"ini":  {AlwaysSearch, ModeStructured},
	"json": {AlwaysSearch, ModeStructured},
	"toml": {AlwaysSearch, ModeStructured},
	"tsv":  {AlwaysSearch, ModeStructured},
	"xml":  {AlwaysSearch, ModeStructured},
	"yaml": {AlwaysSearch, ModeStructured},
	"yml":  {AlwaysSearch, ModeStructured},

	// Logs and generated text: searchable but often huge or noisy.
	"log": {ConditionalSearch, ModeFullText},
	"out": {ConditionalSearch, ModeFullText},

	// Lock files and minified assets: rarely useful, opt-in via strategy.
	"lock": {SkipByDefault, ModeFullText},
	"map":  {SkipByDefault, ModeStructured},
	"min":  {SkipByDefault, ModeFullText},

	// Documents: raw bytes are not line-oriented text.
	"doc":  {ConditionalSearch, ModeMetadata},
	"docx": {ConditionalSearch, ModeMetadata},
	"odt":  {ConditionalSearch, ModeMetadata},
	"pdf":  {ConditionalSearch, ModeMetadata},
	"rtf":  {ConditionalSearch, ModeMetadata},

	// Media: match file names only.
	"avi":  {NeverSearch, ModeFilename},
	"bmp":  {NeverSearch, ModeFilename},
	"flac": {NeverSearch, ModeFilename},
	"gif":  {NeverSearch, ModeFilename},
	"ico":  {NeverSearch, ModeFilename},
	"jpeg": {NeverSearch, ModeFilename},
	"jpg":  {NeverSearch, ModeFilename},
	"mkv":  {NeverSearch, ModeFilename},
	"mov":  {NeverSearch, ModeFilename},
	"mp3":  {NeverSearch, ModeFilename},
	"mp4":  {NeverSearch, ModeFilename},
	"ogg":  {NeverSearch, ModeFilename},
	"png":  {NeverSearch, ModeFilename},
	"svg":  {AlwaysSearch, ModeStructured},
	"wav":  {NeverSearch, ModeFilename},
	"webm": {NeverSearch, ModeFilename},
	"webp": {NeverSearch, ModeFilename},

	// Archive formats with no enumeration support: opaque containers.
	// zip/jar/tar/tgz are handled by the archive branch before the table.
	"7z":  {NeverSearch, ModeFilename},
	"bz2": {NeverSearch, ModeFilename},
	"rar": {NeverSearch, ModeFilename},
	"xz":  {NeverSearch, ModeFilename},

	// Compiled artifacts and binaries.
	"a":     {NeverSearch, ModeFilename},
	"bin":   {NeverSearch, ModeFilename},
	"class": {NeverSearch, ModeFilename},
	"dll":   {NeverSearch, ModeFilename},
	"dylib": {NeverSearch, ModeFilename},
	"exe":   {NeverSearch, ModeFilename},
	"o":     {NeverSearch, ModeFilename},
	"obj":   {NeverSearch, ModeFilename},
	"pyc":   {NeverSearch, ModeFilename},
	"so":    {NeverSearch, ModeFilename},
	"wasm":  {NeverSearch, ModeFilename},

	// Databases and dumps.
	"db":     {NeverSearch, ModeFilename},
	"sqlite": {NeverSearch, ModeFilename},
}

// lookupExtension returns the table entry for a normalized extension.
// Unknown extensions default to ConditionalSearch full text, which routes
// them through content sniffing.
func lookupExtension(ext string) Decision {
	if e, ok := extensionTable[ext]; ok {
		return Decision{Class: e.class, Mode: e.mode}
	}
	return Decision{Class: ConditionalSearch, Mode: ModeFullText, unknown: true}
}
