package bot

import (
	"fmt"
	"html"
	"strings"
)

const (
	msgInvalidFile = "❌ Please send a valid EPUB (.epub) file."
	msgDownloading = "📥 Downloading and processing your file... Please wait."
	msgConverting  = "⚙️ Converting EPUB to PDF... This might take a moment."
	msgUploading   = "✅ Conversion successful! Uploading your PDF..."
	msgUnexpected  = "❌ An unexpected error occurred. Please try again later."
)

func welcomeMessage(firstName string, maxFileSizeMB int64) string {
	if firstName == "" {
		firstName = "there"
	}
	return fmt.Sprintf("Hello, %s! 👋\n\n"+
		"Send me an EPUB (.epub) file and I will convert it to a PDF for you.\n\n"+
		"<b>Note for Standard Users:</b> File size is limited to %d MB.",
		html.EscapeString(firstName), maxFileSizeMB)
}

func tooLargeMessage(size, maxFileSizeMB int64) string {
	return fmt.Sprintf("❌ File is too large (%.2f MB). The maximum size for standard users is %d MB.",
		float64(size)/1024/1024, maxFileSizeMB)
}

// conversionFailedMessage is sent with Markdown parse mode. Backticks in the
// error would end the code span early.
func conversionFailedMessage(err error) string {
	detail := strings.ReplaceAll(err.Error(), "`", "'")
	return "❌ An error occurred during conversion: \n`" + detail + "`"
}

func caption(fileName, title string, authors []string, pages int) string {
	var b strings.Builder
	b.WriteString("Converted: ")
	b.WriteString(fileName)
	if title != "" {
		b.WriteString("\n")
		b.WriteString(title)
	}
	if len(authors) > 0 {
		b.WriteString("\nby ")
		b.WriteString(strings.Join(authors, ", "))
	}
	if pages > 0 {
		fmt.Fprintf(&b, "\n%d pages", pages)
	}
	return b.String()
}
