// Package main provides reportctl, a command-line front end to the report
// analysis pipeline.
//
// Usage:
//
//	reportctl analyze --file report.txt [--format json|markdown]
//	reportctl ask --file report.txt --question "What stage is it?"
//	reportctl ocr --image scan.jpg
package main

func main() {
	Execute()
}
