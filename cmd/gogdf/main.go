// main.go --  This file is part of goGDF project.
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
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gogdf"
	"gogdf/cderifile"
)

var aBohr = 0.52917720859

func appInfo() {
	gogdf.OutputLogger.Println("\n          ___  ___  ___  | goGDF -- periodic Gaussian density fitting\n" +
		"   __ _  / __|| \\ \\| __| | builds the cderi tensor with the\n" +
		"  / _` || (_ ||  | || _|  | compensated-charge lattice-sum split\n" +
		"  \\__, | \\___||___/|_|    |\n" +
		"  |___/                   | Have fun!!!\n\n")
}

func printOutputDelimiter() {
	gogdf.OutputLogger.Println(strings.Repeat("-", 70))
}

type shellSpec struct {
	l     int
	exps  []float64
	coefs []float64
}

type inputData struct {
	lattice   [3][3]float64
	dim       int
	coordUnit float64
	atoms     []gogdf.Atom
	basis     map[string][]shellSpec
	auxBasis  map[string][]shellSpec
	kpts      [][3]float64
}

func findBlockEnd(n int, data []string, bname string) int {
	for i := n; i < len(data); i++ {
		words := strings.Fields(data[i])
		if len(words) > 0 {
			if strings.ToLower(words[0]) == "end" {
				return i
			}
		}
	}
	gogdf.ErrorLogger.Fatal("No end of block " + bname + ".")
	return 0
}

func parseFloats(words []string, bname string, line int) []float64 {
	out := make([]float64, len(words))
	for i, w := range words {
		v, err := strconv.ParseFloat(w, 64)
		if err != nil {
			gogdf.ErrorLogger.Fatal("Parsing input. Bad number in " + bname + " block, line " + strconv.Itoa(line) + ": " + w)
		}
		out[i] = v
	}
	return out
}

// parseShellLine reads "Element l exp coef [exp coef ...]".
func parseShellLine(words []string, line int) (string, shellSpec) {
	if len(words) < 4 || len(words)%2 != 0 {
		gogdf.ErrorLogger.Fatal("Parsing input. Bad shell on line " + strconv.Itoa(line) + ": want Element l exp coef [exp coef ...]")
	}
	l, err := strconv.Atoi(words[1])
	if err != nil || l < 0 {
		gogdf.ErrorLogger.Fatal("Parsing input. Bad angular momentum on line " + strconv.Itoa(line) + ": " + words[1])
	}
	vals := parseFloats(words[2:], "basis", line)
	sp := shellSpec{l: l}
	for i := 0; i < len(vals); i += 2 {
		sp.exps = append(sp.exps, vals[i])
		sp.coefs = append(sp.coefs, vals[i+1])
	}
	return words[0], sp
}

func parseBasisBlock(data []string, start, end int, dst map[string][]shellSpec) {
	for i := start; i < end; i++ {
		words := strings.Fields(data[i])
		if len(words) == 0 {
			continue
		}
		el, sp := parseShellLine(words, i)
		dst[el] = append(dst[el], sp)
	}
}

func processInput(data []string) inputData {
	in := inputData{
		dim:       3,
		coordUnit: 1,
		basis:     map[string][]shellSpec{},
		auxBasis:  map[string][]shellSpec{},
	}
	var haveLattice, haveAtoms, haveAux bool
	for i := 0; i < len(data); i++ {
		words := strings.Fields(data[i])
		if len(words) == 0 {
			continue
		}
		switch strings.ToLower(words[0]) {
		case "lattice":
			end := findBlockEnd(i, data, "Lattice")
			if end-i-1 != 3 {
				gogdf.ErrorLogger.Fatal("Parsing input. Lattice block needs 3 rows.")
			}
			for r := 0; r < 3; r++ {
				row := parseFloats(strings.Fields(data[i+1+r]), "Lattice", i+1+r)
				if len(row) != 3 {
					gogdf.ErrorLogger.Fatal("Parsing input. Lattice row needs 3 numbers.")
				}
				copy(in.lattice[r][:], row)
			}
			haveLattice = true
			gogdf.OutputLogger.Print("Parsing input. Lattice block found at lines ", i, " -- ", end, ".")
		case "atoms":
			end := findBlockEnd(i, data, "Atoms")
			for j := i + 1; j < end; j++ {
				words := strings.Fields(data[j])
				if len(words) == 0 {
					continue
				}
				if len(words) != 4 {
					gogdf.ErrorLogger.Fatal("Parsing input. Atom line needs Element x y z.")
				}
				xyz := parseFloats(words[1:], "Atoms", j)
				in.atoms = append(in.atoms, gogdf.Atom{
					Element: words[0],
					Coord:   [3]float64{xyz[0], xyz[1], xyz[2]},
				})
			}
			haveAtoms = true
			gogdf.OutputLogger.Print("Parsing input. Atoms block found at lines ", i, " -- ", end, ".")
		case "basis":
			end := findBlockEnd(i, data, "Basis")
			parseBasisBlock(data, i+1, end, in.basis)
			gogdf.OutputLogger.Print("Parsing input. Basis block found.")
		case "auxbasis":
			end := findBlockEnd(i, data, "AuxBasis")
			parseBasisBlock(data, i+1, end, in.auxBasis)
			haveAux = true
			gogdf.OutputLogger.Print("Parsing input. AuxBasis block found.")
		case "kpts":
			end := findBlockEnd(i, data, "Kpts")
			for j := i + 1; j < end; j++ {
				words := strings.Fields(data[j])
				if len(words) == 0 {
					continue
				}
				k := parseFloats(words, "Kpts", j)
				if len(k) != 3 {
					gogdf.ErrorLogger.Fatal("Parsing input. K-point line needs 3 numbers.")
				}
				in.kpts = append(in.kpts, [3]float64{k[0], k[1], k[2]})
			}
			gogdf.OutputLogger.Print("Parsing input. Kpts block found, ", len(in.kpts), " k-points.")
		case "dimension":
			d, err := strconv.Atoi(words[1])
			if err != nil || d < 0 || d > 3 {
				gogdf.ErrorLogger.Fatal("Parsing input. Dimension must be 0..3.")
			}
			in.dim = d
		case "units":
			if len(words) > 1 && strings.ToLower(words[1]) == "angstrom" {
				in.coordUnit = 1 / aBohr
			}
		case "nprocs":
			nprocs, _ := strconv.Atoi(words[1])
			runtime.GOMAXPROCS(nprocs)
			gogdf.OutputLogger.Print("Parsing input. Number of threads set to " + words[1] + ".")
		}
	}
	if !haveLattice {
		gogdf.ErrorLogger.Fatal("Parsing input. No Lattice found.")
	}
	if !haveAtoms {
		gogdf.ErrorLogger.Fatal("Parsing input. No Atoms found.")
	}
	if len(in.basis) == 0 {
		gogdf.ErrorLogger.Fatal("Parsing input. No Basis found.")
	}
	if !haveAux {
		gogdf.ErrorLogger.Fatal("Parsing input. No AuxBasis found.")
	}
	for ai := range in.atoms {
		for d := 0; d < 3; d++ {
			in.atoms[ai].Coord[d] *= in.coordUnit
		}
	}
	if in.coordUnit != 1 {
		for r := 0; r < 3; r++ {
			for d := 0; d < 3; d++ {
				in.lattice[r][d] *= in.coordUnit
			}
		}
	}
	return in
}

func buildCell(in inputData, basis map[string][]shellSpec) *gogdf.Cell {
	cell, err := gogdf.NewCell(in.lattice, in.dim, in.atoms)
	if err != nil {
		gogdf.ErrorLogger.Fatal("Building cell: ", err)
	}
	for ai, at := range in.atoms {
		shells, ok := basis[at.Element]
		if !ok {
			gogdf.ErrorLogger.Fatal("No basis for element " + at.Element + ".")
		}
		for _, sp := range shells {
			cell.AddShell(ai, sp.l, sp.exps, sp.coefs)
		}
	}
	if err := cell.Validate(); err != nil {
		gogdf.ErrorLogger.Fatal("Building cell: ", err)
	}
	return cell
}

func main() {
	runtime.GOMAXPROCS(1)

	cfgFname := flag.String("config", "", "yaml file with numerical knobs")
	outDir := flag.String("o", "", "cderi store directory (default <input>.cderi)")
	flag.Parse()

	var inpFname, outFname string
	if flag.NArg() > 0 {
		inpFname = flag.Arg(0)
		splitInpFname := strings.Split(inpFname, ".")
		fExt := splitInpFname[len(splitInpFname)-1]
		outFname = inpFname[0:(len(inpFname)-len(fExt))] + "out"
		fmt.Println("Output file: ", outFname)
	} else {
		log.Fatal("No input file.")
	}

	file, err := os.OpenFile(outFname, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}
	gogdf.InitLog(file)

	gogdf.InfoLogger.Println("Starting goGDF...")
	appInfo()
	gogdf.OutputLogger.Println("\n")

	gogdf.OutputLogger.Println("Input file content:")
	printOutputDelimiter()
	inpData, err := gogdf.ReadFileLines(inpFname)
	if err != nil {
		gogdf.ErrorLogger.Fatal("Cannot read input file: ", err)
	}
	for _, i := range inpData {
		gogdf.OutputLogger.Println(i)
	}
	printOutputDelimiter()

	in := processInput(inpData)

	cfg := &gogdf.Config{}
	if *cfgFname != "" {
		cfg, err = gogdf.LoadConfig(*cfgFname)
		if err != nil {
			gogdf.ErrorLogger.Fatal("Reading config: ", err)
		}
	}

	cell := buildCell(in, in.basis)
	cell.NormalizeL2()
	aux := buildCell(in, in.auxBasis)
	if cfg.Precision > 0 {
		cell.Precision = cfg.Precision
		aux.Precision = cfg.Precision
	}
	if cfg.Omega != 0 {
		cell.Omega = cfg.Omega
		aux.Omega = cfg.Omega
	}

	builder, err := gogdf.NewBuilder(cell, aux, in.kpts)
	if err != nil {
		gogdf.ErrorLogger.Fatal("Preparing builder: ", err)
	}
	cfg.ApplyTo(builder)

	dir := *outDir
	if dir == "" {
		dir = cfg.Output
	}
	if dir == "" {
		dir = inpFname + ".cderi"
	}
	store, err := cderifile.Open(cderifile.Options{
		Dir:      dir,
		InMemory: cfg.InMemory,
		Compress: cfg.Compress,
	})
	if err != nil {
		gogdf.ErrorLogger.Fatal("Opening cderi store: ", err)
	}
	defer store.Close()

	if err := builder.Build(store); err != nil {
		gogdf.ErrorLogger.Fatal("Build failed: ", err)
	}

	printOutputDelimiter()
	gogdf.OutputLogger.Println("cderi tensor done:")
	gogdf.OutputLogger.Println("  nao  = ", cell.NFunc())
	gogdf.OutputLogger.Println("  naux = ", builder.NAux())
	gogdf.OutputLogger.Println("  kpts = ", len(builder.Kpts))
	gogdf.OutputLogger.Println("  store: ", dir)
	printOutputDelimiter()

	gogdf.MemDebug()

	gogdf.OutputLogger.Println("\n")
	gogdf.InfoLogger.Println("Exiting goGDF...")
	fmt.Println("goGDF done.")
}
