// Package console renders a chat session on a terminal and reads typed lines.
package console
