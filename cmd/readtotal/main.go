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

// read_total prints the record count stored in a table file's header,
// e.g. `find tri_parts/ -name '*.bin' -exec read_total '{}' \;`.
package main

import (
	"fmt"
	"os"

	"github.com/czcorpus/ngramstat/record"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "wrong number of arguments")
		os.Exit(1)
	}
	hdr, err := record.PeekHeader(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "couldn't read data header")
		os.Exit(1)
	}
	fmt.Println(hdr.Total)
}
