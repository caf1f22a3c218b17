// Copyright © 2024 The pathoscope Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package reassign

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	file := filepath.Join(dir, name)
	if err := ioutil.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestReadRecordsKeepsOrder(t *testing.T) {
	var buf bytes.Buffer
	n := 2000
	for i := 0; i < n; i++ {
		fmt.Fprintf(&buf, "read%d,ref%d,%d,50,0.5\n", i, i%7, i+1)
	}
	buf.WriteString("broken,line\n")
	file := writeFile(t, t.TempDir(), "to_isolates.vta", buf.String())

	opt := DefaultIngestOptions()
	opt.ChunkSize = 100
	records, stats, err := ReadRecords(file, opt)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != n {
		t.Fatalf("expected %d records, got %d", n, len(records))
	}
	for i, r := range records {
		if r.ReadID != fmt.Sprintf("read%d", i) || r.Pos != i+1 {
			t.Fatalf("record %d out of order: %+v", i, r)
		}
	}
	if stats.Malformed != 1 || stats.Accepted != n {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestWriteRecords(t *testing.T) {
	records := []Record{
		{ReadID: "a", Ref: "R1", Pos: 1, Length: 10, Weight: 0.5},
		{ReadID: "b", Ref: "R2", Pos: 7, Length: 20, Weight: 1},
	}
	var buf bytes.Buffer
	if err := WriteRecords(&buf, records); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "a,R1,1,10,0.5\nb,R2,7,20,1\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}

	again, _, err := ParseRecords(&buf, DefaultIngestOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 2 || again[0] != records[0] || again[1] != records[1] {
		t.Errorf("records changed after writing: %+v", again)
	}
}

func TestHostWeightsAndLengths(t *testing.T) {
	dir := t.TempDir()

	host, err := HostWeights(writeFile(t, dir, "host.tsv", "r1\t0.5\nr2\t0.9\n"), DefaultIngestOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(host) != 2 || host["r1"] != 0.5 || host["r2"] != 0.9 {
		t.Errorf("unexpected host weights: %v", host)
	}

	lengths, err := ReadLengths(writeFile(t, dir, "refs.fa", ">R1 desc\nACGT\nACGT\n>R2\nAC\n"))
	if err != nil {
		t.Fatal(err)
	}
	if lengths["R1"] != 8 || lengths["R2"] != 2 {
		t.Errorf("unexpected lengths from FASTA: %v", lengths)
	}

	lengths, err = ReadLengths(writeFile(t, dir, "lengths.tsv", "R1\t100\nR2\t250\n"))
	if err != nil {
		t.Fatal(err)
	}
	if lengths["R1"] != 100 || lengths["R2"] != 250 {
		t.Errorf("unexpected lengths from table: %v", lengths)
	}

	if _, err = ReadLengths(writeFile(t, dir, "bad.tsv", "R1\tlong\n")); err == nil {
		t.Errorf("invalid length should fail")
	}
}
