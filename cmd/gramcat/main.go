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

// gramcat decodes and prints one of the pipeline's table files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/ngramstat/record"
	"github.com/fatih/color"
	"github.com/rodaine/table"
)

func loadIdStrMap(path string) (map[uint32]string, error) {
	hdr, err := record.PeekHeader(path)
	if err != nil {
		return nil, err
	}
	m := make(map[uint32]string)
	switch hdr.MsgType {
	case record.UnigramCodec.MsgType:
		r, err := record.OpenTable(path, record.UnigramCodec)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		for {
			v, err := r.Next()
			if err != nil {
				break
			}
			m[v.Wid] = v.Str
		}
	case record.LemIdCodec.MsgType:
		r, err := record.OpenTable(path, record.LemIdCodec)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		for {
			v, err := r.Next()
			if err != nil {
				break
			}
			m[v.Id] = v.Str
		}
	default:
		return nil, fmt.Errorf("%s is not an id/string table (got %q)", path, hdr.MsgType)
	}
	return m, nil
}

func newPrinter(headers ...string) (*table.Table, bool) {
	isTTY := !color.NoColor
	tbl := table.New(toInterfaceSlice(headers)...)
	if isTTY {
		headerFmt := color.New(color.FgGreen).SprintfFunc()
		columnFmt := color.New(color.FgHiMagenta).SprintfFunc()
		tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt).WithHeaderSeparatorRow('=')
	}
	return tbl, isTTY
}

func toInterfaceSlice(vs []string) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "gramcat - print the contents of a pipeline table file.\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n  gramcat <table_file> [uni.tbl] [lemid.tbl]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	logLevel := flag.String("log-level", "warn", "set log level (debug, info, warn, error)")
	flag.Parse()
	logging.SetupLogging(logging.LoggingConf{Level: logging.LogLevel(*logLevel)})

	path := flag.Arg(0)
	if path == "" {
		flag.Usage()
		os.Exit(1)
	}
	hdr, err := record.PeekHeader(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}

	var uniStrs, lemStrs map[uint32]string
	if flag.Arg(1) != "" {
		uniStrs, err = loadIdStrMap(flag.Arg(1))
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR: ", err)
			os.Exit(1)
		}
	}
	if flag.Arg(2) != "" {
		lemStrs, err = loadIdStrMap(flag.Arg(2))
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR: ", err)
			os.Exit(1)
		}
	}

	switch hdr.MsgType {
	case record.UnigramCodec.MsgType:
		printUnigrams(path)
	case record.LemIdCodec.MsgType:
		printLemIds(path)
	case record.LemFreqCodec.MsgType:
		printLemFreqs(path)
	case record.BigramCodec.MsgType:
		printBigrams(path, uniStrs)
	case record.TrigramCodec.MsgType:
		printTrigrams(path, uniStrs)
	case record.Lem2GroupCodec.MsgType:
		printLem2Groups(path, uniStrs, lemStrs)
	case record.Lem3GroupCodec.MsgType:
		printLem3Groups(path, uniStrs, lemStrs)
	case record.LemPairFreqCodec.MsgType:
		printLemPairFreqs(path)
	case record.LemTripleFreqCodec.MsgType:
		printLemTripleFreqs(path)
	default:
		fmt.Fprintf(os.Stderr, "data type not implemented: %s\n", hdr.MsgType)
		os.Exit(1)
	}
}

func printUnigrams(path string) {
	r, err := record.OpenTable(path, record.UnigramCodec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}
	defer r.Close()
	tbl, isTTY := newPrinter("WORD", "ID", "COUNT")
	for {
		v, err := r.Next()
		if err != nil {
			break
		}
		if isTTY {
			tbl.AddRow(v.Str, v.Wid, v.Weight)
		} else {
			fmt.Printf("%s\t%d\t%d\n", v.Str, v.Wid, v.Weight)
		}
	}
	if isTTY {
		tbl.Print()
	}
}

func printLemIds(path string) {
	r, err := record.OpenTable(path, record.LemIdCodec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}
	defer r.Close()
	tbl, isTTY := newPrinter("LEM", "ID")
	for {
		v, err := r.Next()
		if err != nil {
			break
		}
		if isTTY {
			tbl.AddRow(v.Str, v.Id)
		} else {
			fmt.Printf("%s\t%d\n", v.Str, v.Id)
		}
	}
	if isTTY {
		tbl.Print()
	}
}

func printLemFreqs(path string) {
	r, err := record.OpenTable(path, record.LemFreqCodec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}
	defer r.Close()
	tbl, isTTY := newPrinter("LEM", "ID", "DOCCOUNT")
	for {
		v, err := r.Next()
		if err != nil {
			break
		}
		if isTTY {
			tbl.AddRow(v.Str, v.Id, v.DocCount)
		} else {
			fmt.Printf("%s\t%d\t%d\n", v.Str, v.Id, v.DocCount)
		}
	}
	if isTTY {
		tbl.Print()
	}
}

func printLemPairFreqs(path string) {
	r, err := record.OpenTable(path, record.LemPairFreqCodec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}
	defer r.Close()
	tbl, isTTY := newPrinter("LID1", "LID2", "DOCCOUNT")
	for {
		v, err := r.Next()
		if err != nil {
			break
		}
		if isTTY {
			tbl.AddRow(v.Lid1, v.Lid2, v.DocCount)
		} else {
			fmt.Printf("%d\t%d\t%d\n", v.Lid1, v.Lid2, v.DocCount)
		}
	}
	if isTTY {
		tbl.Print()
	}
}

func printLemTripleFreqs(path string) {
	r, err := record.OpenTable(path, record.LemTripleFreqCodec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}
	defer r.Close()
	tbl, isTTY := newPrinter("LID1", "LID2", "LID3", "DOCCOUNT")
	for {
		v, err := r.Next()
		if err != nil {
			break
		}
		if isTTY {
			tbl.AddRow(v.Lid1, v.Lid2, v.Lid3, v.DocCount)
		} else {
			fmt.Printf("%d\t%d\t%d\t%d\n", v.Lid1, v.Lid2, v.Lid3, v.DocCount)
		}
	}
	if isTTY {
		tbl.Print()
	}
}

func printBigrams(path string, uniStrs map[uint32]string) {
	r, err := record.OpenTable(path, record.BigramCodec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}
	defer r.Close()
	decode := uniStrs != nil
	headers := []string{"ID1", "ID2", "COUNT"}
	if decode {
		headers = []string{"WORD1", "WORD2", "COUNT"}
	}
	tbl, isTTY := newPrinter(headers...)
	for {
		v, err := r.Next()
		if err != nil {
			break
		}
		c1, c2 := interface{}(v.Wid1), interface{}(v.Wid2)
		if decode {
			c1, c2 = uniStrs[v.Wid1], uniStrs[v.Wid2]
		}
		if isTTY {
			tbl.AddRow(c1, c2, v.Count)
		} else {
			fmt.Printf("%v\t%v\t%d\n", c1, c2, v.Count)
		}
	}
	if isTTY {
		tbl.Print()
	}
}

func printTrigrams(path string, uniStrs map[uint32]string) {
	r, err := record.OpenTable(path, record.TrigramCodec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}
	defer r.Close()
	decode := uniStrs != nil
	headers := []string{"ID1", "ID2", "ID3", "COUNT"}
	if decode {
		headers = []string{"WORD1", "WORD2", "WORD3", "COUNT"}
	}
	tbl, isTTY := newPrinter(headers...)
	for {
		v, err := r.Next()
		if err != nil {
			break
		}
		c1, c2, c3 := interface{}(v.Wid1), interface{}(v.Wid2), interface{}(v.Wid3)
		if decode {
			c1, c2, c3 = uniStrs[v.Wid1], uniStrs[v.Wid2], uniStrs[v.Wid3]
		}
		if isTTY {
			tbl.AddRow(c1, c2, c3, v.Count)
		} else {
			fmt.Printf("%v\t%v\t%v\t%d\n", c1, c2, c3, v.Count)
		}
	}
	if isTTY {
		tbl.Print()
	}
}

func printLem2Groups(path string, uniStrs, lemStrs map[uint32]string) {
	r, err := record.OpenTable(path, record.Lem2GroupCodec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}
	defer r.Close()
	for {
		g, err := r.Next()
		if err != nil {
			break
		}
		l1, l2 := interface{}(g.Lid1), interface{}(g.Lid2)
		if lemStrs != nil {
			l1, l2 = lemStrs[g.Lid1], lemStrs[g.Lid2]
		}
		fmt.Printf("%v\t%v\t%.9f\n", l1, l2, g.Weight)
		for _, c := range g.Cases {
			w1, w2 := interface{}(c.Wid1), interface{}(c.Wid2)
			if uniStrs != nil {
				w1, w2 = uniStrs[c.Wid1], uniStrs[c.Wid2]
			}
			fmt.Printf("\t%v\t%v\t%d\n", w1, w2, c.Count)
		}
	}
}

func printLem3Groups(path string, uniStrs, lemStrs map[uint32]string) {
	r, err := record.OpenTable(path, record.Lem3GroupCodec)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}
	defer r.Close()
	for {
		g, err := r.Next()
		if err != nil {
			break
		}
		l1, l2, l3 := interface{}(g.Lid1), interface{}(g.Lid2), interface{}(g.Lid3)
		if lemStrs != nil {
			l1, l2, l3 = lemStrs[g.Lid1], lemStrs[g.Lid2], lemStrs[g.Lid3]
		}
		fmt.Printf("%v\t%v\t%v\t%.9f\n", l1, l2, l3, g.Weight)
		for _, c := range g.Cases {
			w1, w2, w3 := interface{}(c.Wid1), interface{}(c.Wid2), interface{}(c.Wid3)
			if uniStrs != nil {
				w1, w2, w3 = uniStrs[c.Wid1], uniStrs[c.Wid2], uniStrs[c.Wid3]
			}
			fmt.Printf("\t%v\t%v\t%v\t%d\n", w1, w2, w3, c.Count)
		}
	}
}
