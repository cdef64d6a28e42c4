package keys

// ranges lists the inclusive code point runs a generated key draws from.
//
//nolint:gochecknoglobals
var ranges = [][2]rune{
	{33, 33},
	{35, 38},
	{40, 93},
	{194, 777},
	{880, 887},
	{891, 894},
	{901, 906},
	{911, 929},
	{932, 1309},
	{3871, 3895},
	{2349, 2423},
	{4305, 4348},
	{4352, 4441},
	{4640, 4678},
	{4705, 4742},
	{4753, 4782},
	{4825, 4868},
}

//nolint:gochecknoglobals
var charset = buildCharset()

func buildCharset() []rune {
	var set []rune

	for _, r := range ranges {
		for c := r[0]; c <= r[1]; c++ {
			set = append(set, c)
		}
	}

	return set
}

// Charset returns a copy of the runes keys are generated from, in table order.
func Charset() []rune {
	return append([]rune(nil), charset...)
}
