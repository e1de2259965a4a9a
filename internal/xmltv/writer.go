package xmltv

import (
	"encoding/xml"
	"fmt"
	"io"
)

// writeChannel/writeProgramme mirror xmlChannel/xmlProgramme but only
// carry the fields the writer actually emits, so a future reader of an
// existing feed never sees an element this package writes itself.
type writeIcon struct {
	Src string `xml:"src,attr"`
}

type writeChannel struct {
	XMLName     xml.Name   `xml:"channel"`
	ID          string     `xml:"id,attr"`
	DisplayName string     `xml:"display-name"`
	Icon        *writeIcon `xml:"icon,omitempty"`
}

type writeProgramme struct {
	XMLName xml.Name   `xml:"programme"`
	Start   string     `xml:"start,attr"`
	Stop    string     `xml:"stop,attr"`
	Channel string     `xml:"channel,attr"`
	Title   string     `xml:"title"`
	Desc    string     `xml:"desc,omitempty"`
	Icon    *writeIcon `xml:"icon,omitempty"`
	Category string    `xml:"category,omitempty"`
	Rating   *writeRating `xml:"rating,omitempty"`
}

type writeRating struct {
	Value string `xml:"value"`
}

type writeTV struct {
	XMLName    xml.Name         `xml:"tv"`
	Channels   []writeChannel   `xml:"channel"`
	Programmes []writeProgramme `xml:"programme"`
}

// Write serializes channels and programmes as a single XMLTV document.
// Times are emitted in the offset already carried by each time.Time
// value (UTC unless the caller converted it with time.In beforehand),
// matching the orchestrator's convention of carrying times in the
// configured EPG timezone through to render.
func Write(w io.Writer, channels []XMLTVChannel, programmes []XMLTVProgramme) error {
	doc := writeTV{
		Channels:   make([]writeChannel, 0, len(channels)),
		Programmes: make([]writeProgramme, 0, len(programmes)),
	}
	for _, c := range channels {
		wc := writeChannel{ID: c.ID, DisplayName: c.DisplayName}
		if c.IconSrc != "" {
			wc.Icon = &writeIcon{Src: c.IconSrc}
		}
		doc.Channels = append(doc.Channels, wc)
	}
	for _, p := range programmes {
		wp := writeProgramme{
			Start:   formatXMLTVDate(p.Start),
			Stop:    formatXMLTVDate(p.Stop),
			Channel: p.ChannelID,
			Title:   p.Title,
			Desc:    p.Description,
			Category: p.Category,
		}
		if p.IconSrc != "" {
			wp.Icon = &writeIcon{Src: p.IconSrc}
		}
		if p.Rating != "" {
			wp.Rating = &writeRating{Value: p.Rating}
		}
		doc.Programmes = append(doc.Programmes, wp)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode xmltv document: %w", err)
	}
	return nil
}
