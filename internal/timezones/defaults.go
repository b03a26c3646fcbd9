package timezones

var defaultCities = map[string]string{
	"Bogotá":           "America/Bogota",
	"Medellín":         "America/Bogota",
	"Cali":             "America/Bogota",
	"Cartagena":        "America/Bogota",
	"Barranquilla":     "America/Bogota",
	"Santa Marta":      "America/Bogota",
	"San Andrés":       "America/Bogota",
	"Bucaramanga":      "America/Bogota",
	"Pereira":          "America/Bogota",
	"Madrid":           "Europe/Madrid",
	"Miami":            "America/New_York",
	"Nueva York":       "America/New_York",
	"Ciudad de México": "America/Mexico_City",
	"Lima":             "America/Lima",
	"Buenos Aires":     "America/Argentina/Buenos_Aires",
	"Panamá":           "America/Panama",
}
