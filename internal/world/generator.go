package world

import (
	"github.com/aquilax/go-perlin"

	"github.com/annel0/blockworld/internal/vec"
)

// Константы генерации ландшафта
const (
	baseHeight  = 8    // Базовый уровень поверхности
	heightRange = 6    // Амплитуда шума высоты
	noiseScale  = 0.03 // Масштаб шума (сглаженность ландшафта)
	dirtDepth   = 3    // Толщина слоя земли под травой
)

// Generator детерминированно заполняет новые чанки ландшафтом по
// perlin-шуму: один и тот же сид всегда даёт один и тот же мир.
type Generator struct {
	seed  int64
	noise *perlin.Perlin
}

// NewGenerator создаёт генератор с указанным сидом
func NewGenerator(seed int64) *Generator {
	return &Generator{
		seed:  seed,
		noise: perlin.NewPerlin(2, 2, 3, seed),
	}
}

// Seed возвращает сид генератора
func (g *Generator) Seed() int64 {
	return g.seed
}

// SurfaceHeight возвращает высоту поверхности в колонке (x, z)
func (g *Generator) SurfaceHeight(x, z int) int {
	n := g.noise.Noise2D(float64(x)*noiseScale, float64(z)*noiseScale)
	return baseHeight + int(n*heightRange)
}

// Populate заполняет чанк блоками ландшафта. Пишет напрямую в карту
// блоков, не трогая счётчик версий: генерация — не мутация мира.
func (g *Generator) Populate(c *Chunk) {
	min := c.Coords.MinBlock()
	max := c.Coords.MaxBlock()

	for x := min.X; x <= max.X; x++ {
		for z := min.Z; z <= max.Z; z++ {
			surface := g.SurfaceHeight(x, z)
			for y := min.Y; y <= max.Y && y < surface; y++ {
				pos := vec.Vec3{X: x, Y: y, Z: z}
				switch {
				case y == surface-1:
					c.Blocks[pos] = BlockGrass
				case y >= surface-1-dirtDepth:
					c.Blocks[pos] = BlockDirt
				default:
					c.Blocks[pos] = BlockStone
				}
			}
		}
	}
}
