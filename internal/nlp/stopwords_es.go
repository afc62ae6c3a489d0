package nlp

var defaultSpanish = []string{
	// articles
	"el", "la", "los", "las", "un", "una", "unos", "unas", "lo",

	// prepositions
	"a", "ante", "bajo", "cabe", "con", "contra", "de", "desde", "durante",
	"en", "entre", "hacia", "hasta", "mediante", "para", "por", "segun",
	"sin", "so", "sobre", "tras", "versus", "via", "al", "del",

	// conjunctions, adverbs
	"y", "e", "o", "u", "ni", "pero", "mas", "sino", "aunque", "como",
	"que", "cuando", "donde", "mientras", "si", "porque", "pues", "asi",
	"muy", "mucho", "tambien", "ademas", "ya", "no",

	// pronouns
	"yo", "tu", "ella", "ello", "nosotros", "nosotras", "vosotros",
	"vosotras", "ellos", "ellas", "me", "te", "se", "nos", "os", "le",
	"les", "mi", "ti", "conmigo", "contigo", "consigo", "su", "sus",
	"nuestro", "nuestra", "nuestros", "nuestras", "vuestro", "vuestra",
	"vuestros", "vuestras",

	// common verbs
	"ser", "estar", "haber", "tener", "es", "esta", "estan", "son", "soy",
	"eres", "somos", "sido", "siente", "sienten", "siento", "sientes",
	"tiene", "tienen", "tengo", "tienes", "hemos", "han", "hay",

	// job-ad noise
	"empresa", "importante", "reconocida", "lider", "solicita", "requiere",
	"busca", "buscamos", "necesita", "contratar", "incorporar", "puesto",
	"vacante", "cargo", "posicion", "area", "gerencia", "unidad", "equipo",
	"experiencia", "minima", "anos", "meses", "comprobada", "demostrable",
	"conocimiento", "conocimientos", "manejo", "dominio", "nivel",
	"avanzado", "intermedio", "basico", "excluyente", "deseable",
	"requisitos", "funciones", "responsabilidades", "ofrecemos", "beneficios",
	"sueldo", "salario", "acorde", "mercado", "ingreso", "planilla",
	"disponibilidad", "inmediata", "horario", "completo", "tiempo", "parcial",
	"lunes", "viernes", "sabado", "trabajo", "laboral", "profesional",
	"oportunidad", "desarrollo", "linea", "carrera", "ambiente", "agradable",
	"clima", "distrito", "zona", "sede", "formar", "parte",
	"queremos", "talento", "unete", "postula", "ref", "referencia", "etc",
	"formacion", "titulo", "egresado", "bachiller", "tecnico",
	"universitario", "estudios", "culminados", "indispensable", "residir",
	"contar", "urgente",
	"trabajar", "trabajando", "trabajadora", "trabajador", "trabajadores",
	"cerca", "jockey", "plaza",

	// Lima districts
	"ancon", "ate", "barranco", "brena", "carabayllo", "chaclacayo",
	"chorrillos", "cieneguilla", "comas", "el agustino", "independencia",
	"jesus maria", "la molina", "la victoria", "lince", "los olivos",
	"lurigancho", "chosica", "lurin", "magdalena del mar", "magdalena",
	"miraflores", "pachacamac", "pucusana", "pueblo libre", "puente piedra",
	"punta hermosa", "punta negra", "rimac", "san bartolo", "san borja",
	"san isidro", "san juan de lurigancho", "sjl", "san juan de miraflores", "sjm",
	"san luis", "san martin de porres", "smp", "san miguel", "santa anita",
	"santa maria del mar", "santa rosa", "santiago de surco", "surco",
	"surquillo", "villa el salvador", "ves", "villa maria del triunfo", "vmt",
	"cercado de lima",

	// departments
	"amazonas", "ancash", "apurimac", "arequipa", "ayacucho", "cajamarca",
	"callao", "cusco", "huancavelica", "huanuco", "ica", "junin",
	"la libertad", "lambayeque", "lima", "loreto", "madre de dios",
	"moquegua", "pasco", "piura", "puno", "san martin", "tacna", "tumbes",
	"ucayali", "peru",

	// cities
	"trujillo", "chiclayo", "huancayo", "chimbote", "pucallpa", "sullana",
	"tarapoto",
}

var defaultEnglish = []string{
	"the", "an", "and", "or", "of", "for", "in", "on", "at", "to", "with",
	"by", "from",
}
