package course

// Seoul returns the built-in course: Sangam World Cup Park to Olympic Park.
func Seoul() Course {
	checkpoints := make([]Checkpoint, len(seoulCheckpoints))
	copy(checkpoints, seoulCheckpoints)

	path := make([]Position, 0, len(seoulPathWest)+len(seoulPathEast))
	path = append(path, seoulPathWest...)
	path = append(path, seoulPathEast...)

	return Course{
		Name:        "Seoul Full Course",
		Checkpoints: checkpoints,
		Path:        path,
	}
}

var seoulCheckpoints = []Checkpoint{
	{Name: "스타트(상암월드컵공원)", DistanceLabel: "0km", DistanceKm: 0, Lat: 37.5683, Lng: 126.8970},
	{Name: "광화문 세종대로", DistanceLabel: "~12km", DistanceKm: 12, Lat: 37.5720, Lng: 126.9769},
	{Name: "신설동역", DistanceLabel: "~16km", DistanceKm: 16, Lat: 37.5753, Lng: 127.0250},
	{Name: "군자역 사거리", DistanceLabel: "~20km", DistanceKm: 20, Lat: 37.5551, Lng: 127.0813},
	{Name: "학여울역", DistanceLabel: "~30km", DistanceKm: 30, Lat: 37.4967, Lng: 127.0709},
	{Name: "수서IC", DistanceLabel: "~34km", DistanceKm: 34, Lat: 37.4833, Lng: 127.0930},
	{Name: "피니시(올림픽공원)", DistanceLabel: "42.195km", DistanceKm: FullMarathonKm, Lat: 37.5152, Lng: 127.1213},
}

// Sangam -> Yeouido -> Gwanghwamun -> Sinseol-dong -> Gunja.
var seoulPathWest = []Position{
	{Lat: 37.5683, Lng: 126.8970},
	{Lat: 37.5664, Lng: 126.9025},
	{Lat: 37.5610, Lng: 126.9083},
	{Lat: 37.5535, Lng: 126.9135},
	{Lat: 37.5442, Lng: 126.9208},
	{Lat: 37.5348, Lng: 126.9282},
	{Lat: 37.5285, Lng: 126.9349},
	{Lat: 37.5418, Lng: 126.9499},
	{Lat: 37.5513, Lng: 126.9606},
	{Lat: 37.5595, Lng: 126.9690},
	{Lat: 37.5694, Lng: 126.9749},
	{Lat: 37.5720, Lng: 126.9769},
	{Lat: 37.5723, Lng: 126.9838},
	{Lat: 37.5729, Lng: 126.9915},
	{Lat: 37.5737, Lng: 127.0010},
	{Lat: 37.5745, Lng: 127.0110},
	{Lat: 37.5753, Lng: 127.0250},
	{Lat: 37.5714, Lng: 127.0400},
	{Lat: 37.5656, Lng: 127.0510},
	{Lat: 37.5580, Lng: 127.0650},
	{Lat: 37.5551, Lng: 127.0813},
}

// Gunja -> Jamsil -> Hangnyeoul -> Suseo IC -> Olympic Park.
var seoulPathEast = []Position{
	{Lat: 37.5490, Lng: 127.0945},
	{Lat: 37.5438, Lng: 127.1010},
	{Lat: 37.5382, Lng: 127.1075},
	{Lat: 37.5324, Lng: 127.1120},
	{Lat: 37.5250, Lng: 127.1145},
	{Lat: 37.5188, Lng: 127.1129},
	{Lat: 37.5098, Lng: 127.1040},
	{Lat: 37.5018, Lng: 127.0908},
	{Lat: 37.4967, Lng: 127.0709},
	{Lat: 37.4902, Lng: 127.0799},
	{Lat: 37.4851, Lng: 127.0895},
	{Lat: 37.4833, Lng: 127.0930},
	{Lat: 37.4869, Lng: 127.1049},
	{Lat: 37.4925, Lng: 127.1160},
	{Lat: 37.5002, Lng: 127.1248},
	{Lat: 37.5075, Lng: 127.1298},
	{Lat: 37.5131, Lng: 127.1315},
	{Lat: 37.5168, Lng: 127.1279},
	{Lat: 37.5152, Lng: 127.1213},
}
