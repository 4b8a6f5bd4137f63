// helper.go --  This file is part of goGDF project.
// goGDF authors, 2026
//
//	goGDF is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package gogdf

import (
	"bufio"
	"fmt"
	"os"
	"runtime"

	"gonum.org/v1/gonum/mat"
)

func ReadFileLines(fname string) ([]string, error) {
	var result []string
	var err error

	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		result = append(result, scanner.Text())
	}
	err = scanner.Err()

	return result, err
}

// WriteDenseTxt dumps a matrix as fixed-width text for eyeballing
// small tensors.
func WriteDenseTxt(m *mat.Dense, fname string) error {
	r, c := m.Dims()
	var ftext string
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			ftext += fmt.Sprintf("%12.6f", m.At(i, j))
		}
		ftext += "\n"
	}
	return os.WriteFile(fname, []byte(ftext), 0644)
}

func PrintDense(d *mat.Dense) {
	fa := mat.Formatted(d, mat.Prefix("    "), mat.Squeeze())
	OutputLogger.Printf("    %.8f\n", fa)
}

// PrintZMat prints the real part, then the imaginary part when one is
// carried.
func PrintZMat(m *ZMat) {
	PrintDense(m.Re)
	if m.Im != nil {
		OutputLogger.Printf("    imaginary part:")
		PrintDense(m.Im)
	}
}

func MemDebug() {
	var memStats runtime.MemStats

	runtime.ReadMemStats(&memStats)

	InfoLogger.Printf("Alloc: %d bytes", memStats.Alloc)
	InfoLogger.Printf("TotalAlloc: %d bytes", memStats.TotalAlloc)
	InfoLogger.Printf("HeapAlloc: %d bytes", memStats.HeapAlloc)
	InfoLogger.Printf("HeapSys: %d bytes", memStats.HeapSys)
}
