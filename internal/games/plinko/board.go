package plinko

import "math"

// Board geometry and physics constants. The peg field is a 16-row
// pyramid (3 pegs at the top, 18 at the bottom) over a row of 13
// buckets, mirroring the storefront board.
const (
	boardWidth  = 660.0
	boardHeight = 700.0

	pegRadius  = 4.0
	ballRadius = 8.0
	pegSpacing = 35.0
	rowSpacing = 35.0
	pegRows    = 16
	topRowPegs = 3

	gravity      = 0.5
	friction     = 0.99
	bounceFactor = 0.5
	// centerBias nudges balls that drift past the flanks back toward
	// the middle, keeping the landing distribution bell-shaped.
	centerBias = 0.3

	// bucketTop is the y coordinate where the ball is considered landed.
	bucketTop = boardHeight - 50

	// maxSteps bounds the simulation; a ball under constant gravity
	// crosses the board in far fewer ticks, so hitting the cap means
	// something is numerically wrong and the drop is resolved from the
	// ball's position at that instant.
	maxSteps = 10000
)

type peg struct {
	x, y float64
}

type ball struct {
	x, y   float64
	vx, vy float64
}

// deflection is the randomness contract for the drop simulation.
type deflection interface {
	Float64() float64
}

// Board is the fixed peg field. Construction is cheap and the value is
// immutable, so a single Board can serve all drops.
type Board struct {
	pegs []peg
}

// NewBoard lays out the peg pyramid.
func NewBoard() *Board {
	centerX := boardWidth / 2
	endY := boardHeight - 110
	startY := endY - rowSpacing*(pegRows-1)

	var pegs []peg
	for row := 0; row < pegRows; row++ {
		n := topRowPegs + row
		rowWidth := float64(n-1) * pegSpacing
		startX := centerX - rowWidth/2
		y := startY + rowSpacing*float64(row)
		for i := 0; i < n; i++ {
			pegs = append(pegs, peg{x: startX + float64(i)*pegSpacing, y: y})
		}
	}
	return &Board{pegs: pegs}
}

// Outcome is the result of a single drop.
type Outcome struct {
	// Slot is the landing bucket, 0 (far left) to 12 (far right).
	Slot int
	// PegHits counts peg collisions along the path.
	PegHits int
	// Steps is the number of simulation ticks the ball needed.
	Steps int
}

// Drop simulates one ball from the top of the board to a bucket and
// reports exactly one landing slot. The trajectory is randomized by rng
// (release offset, per-collision impulse) and the tick loop is bounded,
// so the drop always terminates.
func (b *Board) Drop(rng deflection) Outcome {
	centerX := boardWidth / 2
	bl := ball{
		x:  centerX + (rng.Float64()-0.5)*60,
		y:  20,
		vx: (rng.Float64() - 0.5) * 1,
		vy: 0,
	}

	var hits, steps int
	for steps = 0; steps < maxSteps; steps++ {
		bl.vy += gravity
		bl.vx *= friction
		bl.vy *= friction
		bl.x += bl.vx
		bl.y += bl.vy

		for _, p := range b.pegs {
			dx := bl.x - p.x
			dy := bl.y - p.y
			dist := math.Sqrt(dx*dx + dy*dy)
			minDist := ballRadius + pegRadius
			if dist >= minDist {
				continue
			}
			hits++

			angle := math.Atan2(dy, dx)
			// push the ball out of the peg
			overlap := minDist - dist
			bl.x += math.Cos(angle) * overlap
			bl.y += math.Sin(angle) * overlap

			// reflect velocity off the collision normal
			nx, ny := math.Cos(angle), math.Sin(angle)
			dot := bl.vx*nx + bl.vy*ny
			bl.vx = (bl.vx - 2*dot*nx) * bounceFactor
			bl.vy = (bl.vy - 2*dot*ny) * bounceFactor * 0.5

			// random horizontal impulse keeps paths unpredictable
			bl.vx += (rng.Float64() - 0.5) * 2

			if bl.x > centerX+pegSpacing {
				bl.vx -= centerBias
			} else if bl.x < centerX-pegSpacing {
				bl.vx += centerBias
			}
			if rng.Float64() < 0.5 {
				bl.x--
			} else {
				bl.x++
			}
		}

		// side walls
		if bl.x-ballRadius < 0 {
			bl.x = ballRadius
			bl.vx *= -bounceFactor
		} else if bl.x+ballRadius > boardWidth {
			bl.x = boardWidth - ballRadius
			bl.vx *= -bounceFactor
		}

		if bl.y >= bucketTop {
			break
		}
	}

	return Outcome{Slot: slotFor(bl.x), PegHits: hits, Steps: steps}
}

// slotFor maps a final x coordinate to a bucket index, clamped to the
// board so wall-hugging balls still land in an edge slot.
func slotFor(x float64) int {
	slot := int(math.Floor(x / (boardWidth / SlotCount)))
	if slot < 0 {
		return 0
	}
	if slot >= SlotCount {
		return SlotCount - 1
	}
	return slot
}
