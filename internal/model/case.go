package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Case represents one record of the remote case management system.
type Case struct {
	CaseID          int64  `json:"caseId"`
	CaseReference   string `json:"caseReference"`
	CaseDescription string `json:"caseDescription"`
}

// caseWire accepts both the canonical field names and the legacy list aliases.
type caseWire struct {
	CaseID          flexInt64 `json:"caseId"`
	LegacyID        flexInt64 `json:"ID"`
	CaseReference   *string   `json:"caseReference"`
	LegacyReference *string   `json:"az"`
	Description     *string   `json:"caseDescription"`
	LegacyName      *string   `json:"prname"`
}

// UnmarshalJSON decodes a case, falling back to the legacy aliases
// ID, az and prname when the canonical names are absent.
func (c *Case) UnmarshalJSON(data []byte) error {
	var w caseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*c = Case{}
	switch {
	case w.CaseID.set:
		c.CaseID = w.CaseID.value
	case w.LegacyID.set:
		c.CaseID = w.LegacyID.value
	}
	c.CaseReference = firstString(w.CaseReference, w.LegacyReference)
	c.CaseDescription = firstString(w.Description, w.LegacyName)
	return nil
}

// ToUpsertTagRequest converts the case into a tag upsert request.
// The tag URL is urlPrefix followed by the case id.
func (c Case) ToUpsertTagRequest(tagPath, urlPrefix string) UpsertTagRequest {
	return UpsertTagRequest{
		Name:        c.CaseReference,
		Description: c.CaseDescription,
		Path:        tagPath,
		URL:         urlPrefix + strconv.FormatInt(c.CaseID, 10),
	}
}

// UpsertTagRequest creates or updates a tag in the time tracking platform.
type UpsertTagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
	URL         string `json:"url"`
}

// flexInt64 decodes an integer given either as a JSON number or a quoted string.
type flexInt64 struct {
	value int64
	set   bool
}

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid case id %q: %w", string(data), err)
	}
	f.value, f.set = v, true
	return nil
}

func firstString(values ...*string) string {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return ""
}
