// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package archive provides the narrow DocReader interface Convert uses to
// pull raw document text out of ZIP containers, plus a concrete
// archive/zip-backed implementation that skips members with binary file
// extensions before handing a member to the linguistic processor.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tomachalek/vertigo/v6"
)

// DocReader yields the textual content of each member of one archive that
// is worth feeding to the linguistic processor.
type DocReader interface {
	// Documents returns the decoded text of every accepted member, in
	// archive order.
	Documents(path string) ([]string, error)
}

// ZipReader is the default DocReader: it opens a ZIP file and reads every
// member not excluded by ShouldSkipMember.
type ZipReader struct{}

func (ZipReader) Documents(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer zr.Close()

	var docs []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || ShouldSkipMember(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to read archive member %s in %s: %w", f.Name, path, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read archive member %s in %s: %w", f.Name, path, err)
		}
		docs = append(docs, string(content))
	}
	return docs, nil
}

// binaryExtensions lists the member name suffixes treated as image/binary
// payloads, which are not meaningful input for the linguistic processor.
// Only the member name is checked; markup content (e.g. an xmlns
// declaration) is not inspected and is passed through as text.
var binaryExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff",
	".zip", ".rar", ".7z", ".exe", ".dll", ".bin",
}

// ShouldSkipMember reports whether an archive member path should be
// excluded from document extraction.
func ShouldSkipMember(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range binaryExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// VerticalReader treats an already vertical-tagged corpus as pre-tokenized
// input: every `doc` structure becomes one document, its word-form column
// tokens joined with spaces, so the rest of Convert can run its normal
// tokenize/accept-filter logic unchanged.
type VerticalReader struct{}

type vertDocCollector struct {
	docs    []string
	current []string
}

func (c *vertDocCollector) ProcToken(tk *vertigo.Token, line int, err error) error {
	if err != nil {
		return err
	}
	c.current = append(c.current, tk.Word)
	return nil
}

func (c *vertDocCollector) ProcStruct(st *vertigo.Structure, line int, err error) error {
	if err != nil {
		return err
	}
	if st.Name == "doc" && len(c.current) > 0 {
		c.flush()
	}
	return nil
}

func (c *vertDocCollector) ProcStructClose(st *vertigo.StructureClose, line int, err error) error {
	if err != nil {
		return err
	}
	if st.Name == "doc" {
		c.flush()
	}
	return nil
}

func (c *vertDocCollector) flush() {
	if len(c.current) == 0 {
		return
	}
	c.docs = append(c.docs, strings.Join(c.current, " "))
	c.current = nil
}

func (VerticalReader) Documents(path string) ([]string, error) {
	collector := &vertDocCollector{}
	pConf := vertigo.ParserConf{
		InputFilePath:         path,
		Encoding:              "utf-8",
		StructAttrAccumulator: "comb",
	}
	if err := vertigo.ParseVerticalFile(context.Background(), &pConf, collector); err != nil {
		return nil, fmt.Errorf("failed to parse vertical file %s: %w", path, err)
	}
	collector.flush()
	return collector.docs, nil
}
