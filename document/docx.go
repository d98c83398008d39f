package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

var errNoDocumentXML = errors.New("word/document.xml not found")

const wordprocessingML = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// readDocx returns one block per paragraph of word/document.xml, including
// paragraphs nested in tables.
func readDocx(path string) ([]string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		return parseDocumentXML(rc)
	}

	return nil, errNoDocumentXML
}

func parseDocumentXML(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		depth      int
		inText     bool
	)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Space != wordprocessingML {
				continue
			}

			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++

			case "t":
				inText = true

			case "tab":
				current.WriteString("\t")

			case "br", "cr":
				current.WriteString("\n")
			}

		case xml.EndElement:
			if t.Name.Space != wordprocessingML {
				continue
			}

			switch t.Name.Local {
			case "p":
				if depth > 0 {
					depth--
				}
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
				}

			case "t":
				inText = false
			}

		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
