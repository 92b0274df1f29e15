package homeassistant

import (
	"fmt"

	heatpump "github.com/Warm-Energy/Heat-Pump-Modbus-Database"
	"github.com/Warm-Energy/Heat-Pump-Modbus-Database/yamlout"
)

// unlockService is the Home Assistant service every unlock step invokes.
const unlockService = "modbus.write_register"

// BuildUnlock renders the unlock-sequence automation artifact, or nil when
// the document declares no unlock registers. The artifact is documentation as
// much as automation: each value line carries the hex form, the decimal form,
// and the manufacturer's description.
func BuildUnlock(doc *heatpump.Document) *yamlout.Node {
	if doc.Unlock == nil {
		return nil
	}
	root := yamlout.Rec()
	if doc.Unlock.Description != "" {
		root.Set("description", yamlout.Str(doc.Unlock.Description))
	}
	for _, seq := range doc.Unlock.Sequences {
		values := yamlout.Seq()
		for _, v := range seq.Values {
			values.Append(yamlout.Str(fmt.Sprintf("%s #%d %s", v.Hex, v.Decimal, v.Description)))
		}
		root.Set(seq.Name, yamlout.Rec().
			Set("service", yamlout.Str(unlockService)).
			Set("data", yamlout.Rec().
				Set("hub", yamlout.Str(hubName(doc))).
				Set("address", yamlout.Int(seq.Address)).
				Set("values", values)))
	}
	return root
}
