package nd2

import "github.com/mdouchement/nd2/clx"

// TextInfo holds the free-text descriptions of an acquisition.
type TextInfo struct {
	ImageID     string `json:"image_id,omitempty"`
	Type        string `json:"type,omitempty"`
	Group       string `json:"group,omitempty"`
	SampleID    string `json:"sample_id,omitempty"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	Capturing   string `json:"capturing,omitempty"`
	Sampling    string `json:"sampling,omitempty"`
	Location    string `json:"location,omitempty"`
	Date        string `json:"date,omitempty"`
	Conclusion  string `json:"conclusion,omitempty"`
	Info1       string `json:"info1,omitempty"`
	Info2       string `json:"info2,omitempty"`
	Optics      string `json:"optics,omitempty"`
	AppVersion  string `json:"app_version,omitempty"`
}

// parseTextInfo never fails: a tree of the wrong shape yields an empty
// TextInfo.
func parseTextInfo(v clx.Value) *TextInfo {
	ti := &TextInfo{}
	obj, ok := clx.AsObject(unwrap(v))
	if !ok {
		return ti
	}

	fields := map[string]*string{
		"ImageId":     &ti.ImageID,
		"Type":        &ti.Type,
		"Group":       &ti.Group,
		"SampleId":    &ti.SampleID,
		"Author":      &ti.Author,
		"Description": &ti.Description,
		"Capturing":   &ti.Capturing,
		"Sampling":    &ti.Sampling,
		"Location":    &ti.Location,
		"Date":        &ti.Date,
		"Conclusion":  &ti.Conclusion,
		"Info1":       &ti.Info1,
		"Info2":       &ti.Info2,
		"Optics":      &ti.Optics,
		"AppVersion":  &ti.AppVersion,
	}
	for name, dst := range fields {
		if s, ok := obj.Text(name); ok {
			*dst = s
		}
	}
	return ti
}
