package durations

var defaultEdges = []Edge{
	{Origin: "Bogotá", Destination: "Medellín", Minutes: 55},
	{Origin: "Medellín", Destination: "Bogotá", Minutes: 55},
	{Origin: "Bogotá", Destination: "Cali", Minutes: 60},
	{Origin: "Cali", Destination: "Bogotá", Minutes: 60},
	{Origin: "Bogotá", Destination: "Cartagena", Minutes: 90},
	{Origin: "Cartagena", Destination: "Bogotá", Minutes: 90},
	{Origin: "Bogotá", Destination: "Barranquilla", Minutes: 90},
	{Origin: "Barranquilla", Destination: "Bogotá", Minutes: 90},
	{Origin: "Bogotá", Destination: "Santa Marta", Minutes: 95},
	{Origin: "Santa Marta", Destination: "Bogotá", Minutes: 95},
	{Origin: "Bogotá", Destination: "San Andrés", Minutes: 120},
	{Origin: "San Andrés", Destination: "Bogotá", Minutes: 120},
	{Origin: "Bogotá", Destination: "Bucaramanga", Minutes: 60},
	{Origin: "Bucaramanga", Destination: "Bogotá", Minutes: 60},
	{Origin: "Bogotá", Destination: "Pereira", Minutes: 50},
	{Origin: "Pereira", Destination: "Bogotá", Minutes: 50},
	{Origin: "Medellín", Destination: "Cartagena", Minutes: 75},
	{Origin: "Cartagena", Destination: "Medellín", Minutes: 75},
	{Origin: "Cali", Destination: "Cartagena", Minutes: 100},
	{Origin: "Cartagena", Destination: "Cali", Minutes: 100},
	{Origin: "Medellín", Destination: "San Andrés", Minutes: 105},
	{Origin: "San Andrés", Destination: "Medellín", Minutes: 105},

	{Origin: "Bogotá", Destination: "Madrid", Minutes: 600},
	{Origin: "Madrid", Destination: "Bogotá", Minutes: 630},
	{Origin: "Bogotá", Destination: "Miami", Minutes: 225},
	{Origin: "Miami", Destination: "Bogotá", Minutes: 230},
	{Origin: "Bogotá", Destination: "Ciudad de México", Minutes: 290},
	{Origin: "Ciudad de México", Destination: "Bogotá", Minutes: 280},
	{Origin: "Bogotá", Destination: "Lima", Minutes: 190},
	{Origin: "Lima", Destination: "Bogotá", Minutes: 190},
	{Origin: "Bogotá", Destination: "Buenos Aires", Minutes: 390},
	{Origin: "Buenos Aires", Destination: "Bogotá", Minutes: 400},
	{Origin: "Bogotá", Destination: "Nueva York", Minutes: 340},
	{Origin: "Nueva York", Destination: "Bogotá", Minutes: 350},
	{Origin: "Bogotá", Destination: "Panamá", Minutes: 105},
	{Origin: "Panamá", Destination: "Bogotá", Minutes: 105},
	{Origin: "Medellín", Destination: "Miami", Minutes: 210},
	{Origin: "Miami", Destination: "Medellín", Minutes: 215},
	{Origin: "Cartagena", Destination: "Panamá", Minutes: 70},
	{Origin: "Panamá", Destination: "Cartagena", Minutes: 70},
}
