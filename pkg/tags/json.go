package tags

import (
	"fmt"

	"github.com/goccy/go-json"
)

// FlexibleTags decodes either JSON tag encoding into a List.
type FlexibleTags List

func (t *FlexibleTags) UnmarshalJSON(data []byte) error {
	// Most resources model Tags as an array
	var asList []Tag
	if err := json.Unmarshal(data, &asList); err == nil {
		*t = asList
		return nil
	}

	// Some resources model Tags as a map
	var asMap map[string]string
	if err := json.Unmarshal(data, &asMap); err == nil {
		*t = FlexibleTags(sortedPairs(asMap))
		return nil
	}

	return fmt.Errorf("tags field is neither a slice of objects nor a map")
}

// Decode reads a JSON tag value in either encoding and normalizes it to style.
func Decode(style Style, data []byte) (any, error) {
	var flex FlexibleTags
	if err := json.Unmarshal(data, &flex); err != nil {
		return nil, err
	}
	return Normalize(style, List(flex))
}
