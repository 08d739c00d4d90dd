// Command j2kdump prints the structure of a JPEG 2000 codestream and
// optionally decodes it to raw interleaved samples.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"

	"github.com/openmedimg/go-jpeg2000/jpeg2000"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
)

var progressionNames = map[uint8]string{
	0: "LRCP", 1: "RLCP", 2: "RPCL", 3: "PCRL", 4: "CPRL",
}

var quantNames = map[int]string{
	codestream.QuantNone:            "none",
	codestream.QuantScalarDerived:   "scalar derived",
	codestream.QuantScalarExpounded: "scalar expounded",
}

func main() {
	decode := flag.Bool("decode", false, "decode the image and report pixel statistics")
	lenient := flag.Bool("lenient", false, "keep decoding past damaged code-blocks")
	parallel := flag.Int("parallel", 0, "max tiles decoded concurrently (0 = sequential)")
	output := flag.String("o", "", "write decoded samples (interleaved little-endian) to this file")
	verbose := flag.Bool("v", false, "enable decode tracing")
	cpuprofile := flag.Bool("cpuprofile", false, "write a CPU profile to the current directory")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] file.j2k|file.jp2\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *cpuprofile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	raw, err := codestreamBytes(data)
	if err != nil {
		log.Fatal(err)
	}
	cs, err := codestream.NewParser(raw).Parse()
	if err != nil {
		log.Fatalf("parse: %v", err)
	}
	dump(cs)

	if !*decode && *output == "" {
		return
	}

	dec := jpeg2000.NewDecoderWithOptions(jpeg2000.DecodeOptions{
		Lenient:  *lenient,
		Parallel: *parallel,
	})
	if *verbose {
		dec.SetLogger(log)
	}
	pb, err := dec.Decode(data, len(data))
	if err != nil {
		log.Fatalf("decode: %v", err)
	}

	fmt.Printf("\ndecoded %dx%d, %d component(s), %d-bit\n",
		pb.Width, pb.Height, pb.Components, pb.BitDepth)
	if rep := dec.Report(); rep.CorruptBlocks > 0 {
		fmt.Printf("recovered: %d corrupt block(s), %d/%d passes decoded\n",
			rep.CorruptBlocks, rep.PassesDecoded, rep.PassesDecoded+rep.PassesAbandoned)
	}
	min, max := pb.Samples[0], pb.Samples[0]
	for _, v := range pb.Samples {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	fmt.Printf("sample range [%d, %d]\n", min, max)

	if *output != "" {
		var out []byte
		if pb.BitDepth <= 8 && !pb.Signed {
			out = pb.Interleaved8()
		} else {
			out = pb.Interleaved16()
		}
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %d bytes to %s\n", len(out), *output)
	}
}

// codestreamBytes strips a JP2 container down to its codestream box, or
// returns the input unchanged when it already starts with SOC.
func codestreamBytes(data []byte) ([]byte, error) {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0x4F {
		return data, nil
	}
	pos := 0
	for pos+8 <= len(data) {
		size := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		boxType := string(data[pos+4 : pos+8])
		payload := pos + 8
		switch size {
		case 0:
			size = len(data) - pos
		case 1:
			if pos+16 > len(data) {
				return nil, fmt.Errorf("truncated extended box length")
			}
			size = int(binary.BigEndian.Uint64(data[pos+8 : pos+16]))
			payload = pos + 16
		default:
			if size < 8 {
				return nil, fmt.Errorf("malformed box %q", boxType)
			}
		}
		if pos+size > len(data) || size <= 0 {
			return nil, fmt.Errorf("box %q overruns file", boxType)
		}
		if boxType == "jp2c" {
			return data[payload : pos+size], nil
		}
		pos += size
	}
	return nil, fmt.Errorf("no codestream found")
}

func dump(cs *codestream.Codestream) {
	siz := cs.SIZ
	fmt.Printf("SIZ: image %dx%d at (%d,%d), tiles %dx%d, %d component(s)\n",
		siz.Xsiz-siz.XOsiz, siz.Ysiz-siz.YOsiz, siz.XOsiz, siz.YOsiz,
		siz.XTsiz, siz.YTsiz, siz.Csiz)
	for i, comp := range siz.Components {
		sign := "unsigned"
		if comp.IsSigned() {
			sign = "signed"
		}
		fmt.Printf("  component %d: %d-bit %s, subsampling %dx%d\n",
			i, comp.BitDepth(), sign, comp.XRsiz, comp.YRsiz)
	}

	cod := cs.COD
	cbw, cbh := cod.CodeBlockSize()
	transform := "5/3 reversible"
	if cod.Transformation == 0 {
		transform = "9/7 irreversible"
	}
	fmt.Printf("COD: %s, %d layer(s), %d level(s), code-blocks %dx%d, %s",
		progressionNames[cod.ProgressionOrder], cod.NumberOfLayers,
		cod.NumberOfDecompositionLevels, cbw, cbh, transform)
	if cod.MultipleComponentTransform != 0 {
		fmt.Print(", MCT")
	}
	if cod.UsesSOP() {
		fmt.Print(", SOP")
	}
	if cod.UsesEPH() {
		fmt.Print(", EPH")
	}
	fmt.Println()

	qcd := cs.QCD
	fmt.Printf("QCD: %s, %d guard bit(s), %d step value byte(s)\n",
		quantNames[qcd.QuantizationType()], qcd.GuardBits(), len(qcd.SPqcd))

	for _, com := range cs.COM {
		if com.Rcom == 1 {
			fmt.Printf("COM: %q\n", com.Data)
		} else {
			fmt.Printf("COM: %d binary byte(s)\n", len(com.Data))
		}
	}

	fmt.Printf("%d tile(s):\n", len(cs.Tiles))
	for _, tile := range cs.Tiles {
		fmt.Printf("  tile %d: %d data byte(s)", tile.Index, len(tile.Data))
		if tile.COD != nil {
			fmt.Print(", COD override")
		}
		if tile.QCD != nil {
			fmt.Print(", QCD override")
		}
		fmt.Println()
	}
}
