package txlog

const (
	// ============================================================================
	// Transaction Keywords
	// ============================================================================

	// KeywordAllocate introduces "allocate <size> <name>"
	KeywordAllocate = "allocate"

	// KeywordFree introduces "free <name>"
	KeywordFree = "free"

	// KeywordReference introduces "reference <name1> <name2>"
	KeywordReference = "reference"

	// KeywordPrint introduces "print"
	KeywordPrint = "print"

	// ============================================================================
	// Line Structure
	// ============================================================================

	// CommentPrefix marks a comment line
	CommentPrefix = "#"

	// ============================================================================
	// Encoding Names
	// ============================================================================

	// EncodingUTF8 is the identifier for UTF-8 encoding (the default)
	EncodingUTF8 = "UTF-8"

	// EncodingUTF16LE is the identifier for UTF-16 little-endian encoding
	EncodingUTF16LE = "UTF-16LE"

	// EncodingWindows1252 is the identifier for the Windows-1252 code page
	EncodingWindows1252 = "WINDOWS-1252"

	// EncodingLatin1 is the identifier for ISO-8859-1
	EncodingLatin1 = "ISO-8859-1"

	// ============================================================================
	// Scanner Buffer Sizes
	// ============================================================================

	// ScannerInitialBufferSize is the initial line buffer size
	ScannerInitialBufferSize = 4 * 1024

	// ScannerMaxLineSize is the longest line the scanner accepts
	ScannerMaxLineSize = 1024 * 1024
)

// UTF8BOM is the UTF-8 byte order mark, skipped at the start of input.
var UTF8BOM = []byte{0xEF, 0xBB, 0xBF}
