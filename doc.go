package heatpump

// Package heatpump compiles heat-pump Modbus register databases into
// home-automation configuration dialects. It provides:
//
// - A typed document model for manufacturer register databases (Document)
// - A stable diagnostics model (Diagnostic: path, code, message)
// - Decoding and validation of raw JSON documents (Validate)
//
// Design policy:
// - Keep only public APIs in the root package; put decoding plumbing under internal/.
// - Place the semantic tree and emitter under yamlout/, enrichment tables under
//   enrich/, the target builders under homeassistant/ and esphome/, the driver
//   under compile/, and the CLI under cmd/heatpumpc.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	res := heatpump.Validate(data, "acme.json")
//	if res.Buildable() {
//		cfg := homeassistant.Build(res.Doc)
//		text := yamlout.Serialize(cfg, yamlout.HomeAssistantStyle)
//	}
