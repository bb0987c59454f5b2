package convert

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"

	"pdfsqueeze/builder"
)

// Minimal WordprocessingML subset: paragraphs, their style name and the
// text runs inside them. Everything else (tables, images, fields) is
// dropped by the fallback renderer.
type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
}

type docxParagraph struct {
	Props docxParaProps `xml:"pPr"`
	Runs  []docxRun     `xml:"r"`
}

type docxParaProps struct {
	Style docxStyle `xml:"pStyle"`
}

type docxStyle struct {
	Val string `xml:"val,attr"`
}

type docxRun struct {
	Texts []docxText `xml:"t"`
}

type docxText struct {
	Value string `xml:",chardata"`
}

// readDocx extracts the styled paragraphs of a .docx file.
func readDocx(path string) ([]builder.Paragraph, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("convert: open docx: %w", err)
	}
	defer archive.Close()

	var doc docxDocument
	found := false
	for _, f := range archive.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("convert: read docx: %w", err)
		}
		err = xml.NewDecoder(rc).Decode(&doc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("convert: parse docx: %w", err)
		}
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("convert: %s has no word/document.xml", path)
	}

	var out []builder.Paragraph
	for _, p := range doc.Body.Paragraphs {
		var text strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Texts {
				text.WriteString(t.Value)
			}
		}
		s := strings.TrimSpace(text.String())
		if s == "" {
			continue
		}
		out = append(out, builder.Paragraph{Text: s, Style: styleFor(p.Props.Style.Val)})
	}
	return out, nil
}

func styleFor(name string) builder.Style {
	switch strings.ToLower(name) {
	case "heading1", "title":
		return builder.StyleHeading1
	case "heading2":
		return builder.StyleHeading2
	case "heading3", "heading4", "heading5", "heading6":
		return builder.StyleHeading3
	default:
		return builder.StyleBody
	}
}
