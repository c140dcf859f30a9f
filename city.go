package server

import "fmt"

// DefaultCityEnvironment builds the stock downtown map: a grid of box
// towers, one cylindrical landmark, two rooftop bridges, and a river strip
// along the southern edge.
func DefaultCityEnvironment() (*Environment, error) {
	buildings := make([]BuildingData, 0, 26)

	// 5x5 block grid, skipping the centre plaza.
	heights := []float64{10, 16, 24, 12, 30}
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			if row == 2 && col == 2 {
				continue
			}
			buildings = append(buildings, BuildingData{
				ID:       fmt.Sprintf("tower-%d-%d", row, col),
				Position: Vec3{X: float64(col-2) * 40, Z: float64(row-2) * 40},
				Width:    14,
				Height:   heights[(row+col)%len(heights)],
				Depth:    14,
				Shape:    ShapeBox,
			})
		}
	}
	buildings = append(buildings, BuildingData{
		ID:       "observatory",
		Position: Vec3{X: 0, Z: 0},
		Width:    10,
		Height:   36,
		Depth:    10,
		Shape:    ShapeCylinder,
	})

	bridges := []BridgeData{
		{
			ID:       "skywalk-east",
			Position: Vec3{X: 20, Y: 9, Z: 0},
			Width:    28,
			Height:   1,
			Depth:    4,
		},
		{
			ID:       "skywalk-north",
			Position: Vec3{X: 0, Y: 15, Z: -20},
			Width:    4,
			Height:   1,
			Depth:    28,
		},
	}

	water := []WaterArea{
		{X: -worldExtent, Z: worldExtent - 60, Width: 2 * worldExtent, Depth: 60},
	}

	return NewEnvironment(buildings, bridges, water)
}
