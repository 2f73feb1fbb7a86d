package output

import (
	"encoding/json"

	"github.com/pranshuparmar/killport/pkg/model"
)

// ToJSON renders listeners as an indented JSON array. An empty result is
// "[]", never "null".
func ToJSON(listeners []model.Listener) (string, error) {
	if listeners == nil {
		listeners = []model.Listener{}
	}
	data, err := json.MarshalIndent(listeners, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
