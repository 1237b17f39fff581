package bsonfmt_test

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/xdg-go/bsonfmt"
)

func ExampleUnmarshal() {
	json := `{"a": 1}`

	doc, err := bsonfmt.Unmarshal([]byte(json))
	if err != nil {
		log.Fatal(err)
	}

	bson, err := doc.MarshalBSON()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%x\n", bson)
	// Output: 0c0000001061000100000000
}

func ExampleDecoder_Decode() {
	json := `{"a": 1} {"a": "two"}`

	jsonReader := bufio.NewReader(bytes.NewReader([]byte(json)))
	dec, err := bsonfmt.NewDecoder(jsonReader)
	if err != nil {
		log.Fatal(err)
	}

	for {
		doc, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		v, _ := doc.Lookup("a")
		fmt.Println(v.Kind(), v)
	}
	// Output:
	// Int32 1
	// String two
}

func ExampleParseText() {
	v, err := bsonfmt.ParseText(`{"$numberLong": "42"}`)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(v.Kind(), v)
	// Output: Int64 42
}

func ExampleToDocument() {
	v, err := bsonfmt.ToDocument(map[string]string{
		"b": `[1, 2]`,
		"a": `"hi"`,
	})
	if err != nil {
		log.Fatal(err)
	}

	ext, err := bsonfmt.MarshalExtJSON(v.(bsonfmt.Embedded).Doc, false)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(ext))
	// Output: {"a":"hi","b":[1,2]}
}

func ExampleWithLiteralStrings() {
	r := bsonfmt.NewRegistry(bsonfmt.WithLiteralStrings())

	v, err := r.Encode([]string{"x", "y"})
	if err != nil {
		log.Fatal(err)
	}

	s, err := bsonfmt.DecodeAs[[]string](r, v)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(v.Kind(), strings.Join(s, ","))
	// Output: Array x,y
}
