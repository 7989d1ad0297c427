package molecule

// isotopeMasses holds exact isotope masses (u) keyed by atomic number and
// mass number. Labels missing here fall back to the mass number.
var isotopeMasses = map[int]map[int]float64{
	1:  {1: 1.0078250319, 2: 2.0141017779, 3: 3.0160492675},
	2:  {3: 3.0160293097, 4: 4.0026032497},
	3:  {6: 6.0151223, 7: 7.0160040},
	5:  {10: 10.0129370, 11: 11.0093055},
	6:  {10: 10.0168532, 11: 11.0114336, 12: 12.0, 13: 13.0033548378, 14: 14.003241988},
	7:  {13: 13.0057386, 14: 14.0030740052, 15: 15.0001088984},
	8:  {15: 15.0030656, 16: 15.9949146221, 17: 16.99913150, 18: 17.9991604},
	9:  {18: 18.0009380, 19: 18.99840320},
	11: {22: 21.9944365, 23: 22.98976966},
	14: {28: 27.9769265327, 29: 28.97649472, 30: 29.97377022},
	15: {31: 30.97376151, 32: 31.97390716, 33: 32.9717254},
	16: {32: 31.97207069, 33: 32.97145850, 34: 33.96786683, 35: 34.96903214, 36: 35.96708088},
	17: {35: 34.96885271, 36: 35.96830695, 37: 36.96590260},
	19: {39: 38.9637069, 40: 39.96399867, 41: 40.96182597},
	20: {40: 39.9625912, 45: 44.9561859},
	26: {54: 53.9396148, 56: 55.9349421, 57: 56.9353987, 58: 57.9332805, 59: 58.9348805},
	27: {57: 56.9362962, 58: 57.9357576, 60: 59.9338222},
	29: {63: 62.9296011, 64: 63.9297642, 65: 64.9277937, 67: 66.9277503},
	30: {64: 63.9291466, 65: 64.9292451, 66: 65.9260368, 67: 66.9271309, 68: 67.9248476, 70: 69.925325},
	31: {67: 66.9282049, 68: 67.9279835, 69: 68.925581, 71: 70.9247050},
	34: {75: 74.9225240, 77: 76.9199146, 78: 77.9173095, 80: 79.9165218, 82: 81.9167000},
	35: {76: 75.924542, 77: 76.921380, 79: 78.9183376, 81: 80.916291, 82: 81.916805},
	38: {89: 88.9074530, 90: 89.907738},
	39: {90: 89.9071519},
	43: {99: 98.9062546},
	49: {111: 110.9051085, 113: 112.904061, 115: 114.903878},
	53: {123: 122.905598, 124: 123.9062114, 125: 124.9046294, 127: 126.904468, 129: 128.904987, 131: 130.9061242},
	54: {129: 128.9047795, 133: 132.9059057},
	55: {133: 132.905447, 137: 136.9070895},
	81: {201: 200.970819, 203: 202.9723442, 205: 204.974412},
}

// IsotopeMass returns the exact mass of isotope mass number a of element z,
// falling back to a itself when the isotope is not tabulated.
func IsotopeMass(z, a int) float64 {
	if m, ok := isotopeMasses[z][a]; ok {
		return m
	}
	return float64(a)
}

//Personal.AI order the ending
