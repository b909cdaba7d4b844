/*
ASTriage: Android SMS triage and acquisition tool

Copyright (c) 2023 Dan O'Day <d@4n68r.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package main for the offline Android backup parser.
// This tool parses already-captured Android backup (.ab) streams, raw or
// base64-wrapped, and extracts the link-bearing SMS messages they contain.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/danzek/android-sms-triage/indicators"
	"github.com/danzek/android-sms-triage/smstriage"
)

// main function for command-line Android backup stream parser.
func main() {
	// time program execution
	start := time.Now()

	pOutputDirectory := flag.String("d", ".", "Directory path for parsed output (current working directory is default)")
	pBase64 := flag.Bool("b64", false, "Treat input as base64-wrapped (auto-detected otherwise)")
	pIOCFile := flag.String("i", "", "Path to newline-delimited indicator domain list")
	pSQLite := flag.Bool("sqlite", false, "Also write a messages.db SQLite evidence database")
	flag.Parse()

	// validate output directory
	if outputDirInfo, err := os.Stat(*pOutputDirectory); os.IsNotExist(err) || !outputDirInfo.IsDir() {
		fmt.Fprintf(os.Stderr, "Invalid output directory path: %s\n", *pOutputDirectory)
		os.Exit(1)
	}
	fmt.Printf("Output directory set to %s\n", *pOutputDirectory)

	if len(flag.Args()) == 0 {
		fmt.Fprint(os.Stderr, "Missing required argument: Specify path to backup stream file(s), or - for stdin.\n"+
			"Example: abparser backup.ab\n")
		os.Exit(1)
	}

	var matcher *indicators.Indicators
	if *pIOCFile != "" {
		var err error
		matcher, err = indicators.LoadDomains(*pIOCFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading indicator domains: %q\n", err)
			os.Exit(1)
		}
		fmt.Printf("Loaded %d indicator domains from %s\n", matcher.Len(), *pIOCFile)
	}

	res := smstriage.NewResult()
	failed := false
	for _, path := range flag.Args() {
		if err := handleBackupFile(path, *pBase64, res); err != nil {
			fmt.Fprintf(os.Stderr, "Error handling %s: %q\n", path, err)
			failed = true
		}
	}

	if matcher != nil {
		res.CheckIndicators(matcher)
	}

	if err := smstriage.GenerateMessageOutput(res, *pOutputDirectory); err != nil {
		fmt.Fprintf(os.Stderr, "Error encountered:\n%q\n", err)
		os.Exit(1)
	}
	if matcher != nil {
		if err := smstriage.GenerateDetectedOutput(res, *pOutputDirectory); err != nil {
			fmt.Fprintf(os.Stderr, "Error encountered:\n%q\n", err)
			os.Exit(1)
		}
	}
	if *pSQLite {
		dbPath := filepath.Join(*pOutputDirectory, "messages.db")
		if err := smstriage.GenerateSQLiteOutput(res.Records, dbPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error encountered:\n%q\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("%-10d SMS messages with links extracted\n", len(res.Records))
	if matcher != nil {
		fmt.Printf("%-10d messages matched indicator domains\n", len(res.Detected))
	}

	// print completion messages
	fmt.Printf("\nCompleted in %.2f seconds.\n", time.Since(start).Seconds())
	fmt.Printf("Output saved to %s\n", *pOutputDirectory)
	if failed {
		os.Exit(1)
	}
}

func handleBackupFile(path string, forceBase64 bool, res *smstriage.Result) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading backup stream: %w", err)
	}

	raw := data
	if forceBase64 {
		raw, err = smstriage.DecodeTransportBase64(data)
		if err != nil {
			return fmt.Errorf("decoding base64 wrapper: %w", err)
		}
	}

	container, err := smstriage.DecodeBackupContainer(raw)
	if err != nil && !forceBase64 {
		// captures made through the device shell come base64-wrapped
		if decoded, b64Err := smstriage.DecodeTransportBase64(data); b64Err == nil {
			if c, rawErr := smstriage.DecodeBackupContainer(decoded); rawErr == nil {
				container, err = c, nil
			}
		}
	}
	if err != nil {
		return err
	}

	fmt.Println("\nBackup Container Validation / QC")
	fmt.Println("===============================================================")
	fmt.Printf("Format version: %s\n", container.Version)
	fmt.Printf("Encryption: %s\n", container.Encryption)
	fmt.Printf("Payload size: %d bytes\n", len(container.Payload))

	pb := progressbar.Default(-1, "messages")
	progressbar.OptionSetItsString("msg")(pb)
	memberCount := 0
	startCount := len(res.Records)

	decoder := smstriage.NewArchiveDecoder(bytes.NewReader(container.Payload))
	decoder.OnMember = func(name string) error {
		memberCount++
		return nil
	}
	decoder.OnMessage = func(m *smstriage.Message) error {
		pb.Add(1)
		res.Append(*m)
		return nil
	}
	decodeErr := decoder.Decode()
	pb.Finish()

	fmt.Printf("SMS backup members found: %d\n", memberCount)
	fmt.Printf("Messages with links extracted: %d\n", len(res.Records)-startCount)
	return decodeErr
}
