// Package connectors holds the document sources ragchat can ingest from.
// The filesystem connector loads text files from the data directory and
// watches it for changes.
package connectors
