package esphome_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	heatpump "github.com/Warm-Energy/Heat-Pump-Modbus-Database"
	"github.com/Warm-Energy/Heat-Pump-Modbus-Database/esphome"
	"github.com/Warm-Energy/Heat-Pump-Modbus-Database/yamlout"
)

func validated(t *testing.T, raw string) *heatpump.Document {
	t.Helper()
	res := heatpump.Validate([]byte(raw), "test.json")
	require.Empty(t, res.Errors, "fixture must validate cleanly")
	return res.Doc
}

const acmeDoc = `{
  "make": "Acme",
  "modbus": {
    "models": ["X1"],
    "connection": {"baudrate": 9600, "method": "rtu"},
    "registers": {
      "sensors": [
        {"name": "Outdoor_Temp", "address": 13, "unit": "°C", "common_interface": "outdoor_temperature"}
      ]
    }
  }
}`

func TestBuild_SensorEnrichment(t *testing.T) {
	tree := esphome.Build(validated(t, acmeDoc))

	sensors := tree.Get("sensor")
	require.NotNil(t, sensors)
	require.Equal(t, 1, sensors.Len())
	s := sensors.Items()[0]

	assert.Equal(t, "modbus_controller", s.Get("platform").Value())
	assert.Equal(t, "heat_pump", s.Get("modbus_controller_id").Value())
	assert.Equal(t, "outdoor_temp", s.Get("id").Value())
	assert.Equal(t, "Outdoor_Temp", s.Get("name").Value())
	assert.Equal(t, int64(13), s.Get("address").Value())
	assert.Equal(t, "U_WORD", s.Get("value_type").Value())
	assert.Equal(t, "temperature", s.Get("device_class").Value())
	assert.Equal(t, "measurement", s.Get("state_class").Value())
	assert.Equal(t, "mdi:thermometer", s.Get("icon").Value())
}

func TestBuild_FixedSections(t *testing.T) {
	tree := esphome.Build(validated(t, acmeDoc))

	assert.Equal(t, "acme-heat-pump", tree.Get("esphome").Get("name").Value())
	assert.Equal(t, "Acme Heat Pump", tree.Get("esphome").Get("friendly_name").Value())
	assert.Equal(t, int64(0), tree.Get("logger").Get("baud_rate").Value())
	assert.Equal(t, "!secret api_encryption_key", tree.Get("api").Get("encryption").Get("key").Value())
	assert.Equal(t, "!secret ota_password", tree.Get("ota").Get("password").Value())
	assert.Equal(t, "!secret wifi_ssid", tree.Get("wifi").Get("ssid").Value())
	assert.Equal(t, int64(80), tree.Get("web_server").Get("port").Value())

	controller := tree.Get("modbus_controller").Items()[0]
	assert.Equal(t, int64(2), controller.Get("address").Value())
	assert.Equal(t, "30s", controller.Get("update_interval").Value())
}

func TestBuild_UARTFromConnection(t *testing.T) {
	tests := []struct {
		name       string
		connection string
		wantBaud   int64
		wantStop   int64
		wantParity string
	}{
		{
			name:       "explicit even parity",
			connection: `{"baudrate": 19200, "method": "rtu", "stopbits": 2, "parity": "E"}`,
			wantBaud:   19200,
			wantStop:   2,
			wantParity: "EVEN",
		},
		{
			name:       "odd parity",
			connection: `{"baudrate": 9600, "method": "rtu", "parity": "O"}`,
			wantBaud:   9600,
			wantStop:   1,
			wantParity: "ODD",
		},
		{
			name:       "defaults",
			connection: `{"baudrate": 9600, "method": "rtu"}`,
			wantBaud:   9600,
			wantStop:   1,
			wantParity: "NONE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validated(t, `{
			  "make": "Acme",
			  "modbus": {
			    "models": ["X1"],
			    "connection": ` + tt.connection + `,
			    "registers": {"sensors": [{"name": "R", "address": 1}]}
			  }
			}`)
			uart := esphome.Build(doc).Get("uart")
			assert.Equal(t, tt.wantBaud, uart.Get("baud_rate").Value())
			assert.Equal(t, tt.wantStop, uart.Get("stop_bits").Value())
			assert.Equal(t, tt.wantParity, uart.Get("parity").Value())
		})
	}
}

func TestBuild_SkipUpdates(t *testing.T) {
	tests := []struct {
		scanInterval int64
		want         int64
	}{
		{scanInterval: 10, want: 3},
		{scanInterval: 60, want: 1},
		{scanInterval: 30, want: 1},
		{scanInterval: 7, want: 4},
		{scanInterval: 1, want: 30},
	}
	for _, tt := range tests {
		doc := validated(t, `{
		  "make": "Acme",
		  "modbus": {
		    "models": ["X1"],
		    "connection": {"baudrate": 9600, "method": "rtu"},
		    "registers": {"sensors": [{"name": "R", "address": 1, "scan_interval": ` +
			strconv.FormatInt(tt.scanInterval, 10) + `}]}
		  }
		}`)
		s := esphome.Build(doc).Get("sensor").Items()[0]
		assert.Equal(t, tt.want, s.Get("skip_updates").Value(),
			"scan_interval %d", tt.scanInterval)
	}
}

func TestBuild_ScaleBecomesMultiplyFilter(t *testing.T) {
	doc := validated(t, `{
	  "make": "Acme",
	  "modbus": {
	    "models": ["X1"],
	    "connection": {"baudrate": 9600, "method": "rtu"},
	    "registers": {"sensors": [{"name": "R", "address": 1, "scale": 0.1, "precision": 1}]}
	  }
	}`)
	s := esphome.Build(doc).Get("sensor").Items()[0]

	assert.Equal(t, int64(1), s.Get("accuracy_decimals").Value())
	filters := s.Get("filters")
	require.NotNil(t, filters)
	require.Equal(t, 1, filters.Len())
	assert.Equal(t, 0.1, filters.Items()[0].Get("multiply").Value())
}

func TestBuild_SwitchShape(t *testing.T) {
	doc := validated(t, `{
	  "make": "Acme",
	  "modbus": {
	    "models": ["X1"],
	    "connection": {"baudrate": 9600, "method": "rtu"},
	    "registers": {"switches": [{"name": "DHW_Boost", "address": 104}]}
	  }
	}`)
	sw := esphome.Build(doc).Get("switch").Items()[0]

	assert.Equal(t, "modbus_controller", sw.Get("platform").Value())
	assert.Equal(t, int64(104), sw.Get("address").Value())
	assert.Equal(t, int64(1), sw.Get("bitmask").Value())
	assert.NotNil(t, sw.Get("icon"), "switches derive an icon from naming rules")
}

func TestBuild_ClimateThermostat(t *testing.T) {
	doc := validated(t, `{
	  "make": "Acme",
	  "modbus": {
	    "models": ["X1"],
	    "connection": {"baudrate": 9600, "method": "rtu"},
	    "registers": {"climates": [{
	      "name": "Zone1", "address": 30, "target_temp_register": 40,
	      "max_temp": 30, "min_temp": 10, "hvac_mode_register": 42
	    }]}
	  }
	}`)
	tree := esphome.Build(doc)
	c := tree.Get("climate").Items()[0]

	assert.Equal(t, "thermostat", c.Get("platform").Value())
	assert.Equal(t, "zone1_temperature", c.Get("sensor").Value())
	assert.Equal(t, 10.0, c.Get("visual").Get("min_temperature").Value())
	assert.Equal(t, 30.0, c.Get("visual").Get("max_temperature").Value())

	require.NotNil(t, c.Get("heat_action"), "mode register synthesizes actions")
	heat := c.Get("heat_action").Items()[0]
	assert.Equal(t, "zone1_mode", heat.Get("switch.turn_on").Value())
	idle := c.Get("idle_action").Items()[0]
	assert.Equal(t, "zone1_mode", idle.Get("switch.turn_off").Value())

	// Companion entities back the thermostat.
	var tempSensor, modeSwitch *yamlout.Node
	for _, s := range tree.Get("sensor").Items() {
		if s.Get("id").Value() == "zone1_temperature" {
			tempSensor = s
		}
	}
	for _, s := range tree.Get("switch").Items() {
		if s.Get("id").Value() == "zone1_mode" {
			modeSwitch = s
		}
	}
	require.NotNil(t, tempSensor)
	assert.Equal(t, int64(30), tempSensor.Get("address").Value())
	require.NotNil(t, modeSwitch)
	assert.Equal(t, int64(42), modeSwitch.Get("address").Value())
}

func TestBuild_ClimateWithoutModeRegister(t *testing.T) {
	doc := validated(t, `{
	  "make": "Acme",
	  "modbus": {
	    "models": ["X1"],
	    "connection": {"baudrate": 9600, "method": "rtu"},
	    "registers": {"climates": [{"name": "Zone1", "address": 30, "target_temp_register": 40, "max_temp": 30, "min_temp": 10}]}
	  }
	}`)
	tree := esphome.Build(doc)
	c := tree.Get("climate").Items()[0]

	assert.Nil(t, c.Get("heat_action"), "no mode register, no synthesized actions")
	assert.Nil(t, c.Get("idle_action"))
	assert.Nil(t, tree.Get("switch"), "no companion switch either")
}

func TestBuild_SerializedSecretsStayBare(t *testing.T) {
	text := yamlout.Serialize(esphome.Build(validated(t, acmeDoc)), yamlout.ESPHomeStyle)

	assert.Contains(t, text, "key: !secret api_encryption_key\n")
	assert.Contains(t, text, "ssid: !secret wifi_ssid\n")
	assert.NotContains(t, text, "'!secret")
	assert.Contains(t, text, "icon: 'mdi:thermometer'\n")
}

func TestBuild_SerializedOutputParses(t *testing.T) {
	doc := validated(t, `{
	  "make": "Acme",
	  "modbus": {
	    "models": ["X1"],
	    "connection": {"baudrate": 9600, "method": "rtu"},
	    "registers": {"sensors": [{"name": "Outdoor_Temp", "address": 13, "unit": "°C", "scale": 0.1}]}
	  }
	}`)
	tree := esphome.Build(doc)
	// Drop the secret-bearing sections before the YAML round trip; !secret is
	// resolved by the ESPHome reader, not by generic parsers.
	entities := yamlout.Rec().
		Set("uart", tree.Get("uart")).
		Set("sensor", tree.Get("sensor"))
	text := yamlout.Serialize(entities, yamlout.ESPHomeStyle)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(text), &parsed), "output must stay valid YAML:\n%s", text)
	sensors := parsed["sensor"].([]any)
	sensor := sensors[0].(map[string]any)
	assert.Equal(t, "Outdoor_Temp", sensor["name"])
	assert.Equal(t, "temperature", sensor["device_class"])
	assert.Equal(t, "measurement", sensor["state_class"])
	assert.Equal(t, "mdi:thermometer", sensor["icon"])
}

