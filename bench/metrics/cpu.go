package metrics

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// CPUFeatures 返回与浮点吞吐相关的 CPU 特性，写入报告以便比较不同机器的结果
func CPUFeatures() string {
	var feats []string
	switch runtime.GOARCH {
	case "amd64", "386":
		for _, f := range []struct {
			name string
			ok   bool
		}{
			{"sse4.1", cpu.X86.HasSSE41},
			{"avx", cpu.X86.HasAVX},
			{"avx2", cpu.X86.HasAVX2},
			{"fma", cpu.X86.HasFMA},
			{"avx512f", cpu.X86.HasAVX512F},
		} {
			if f.ok {
				feats = append(feats, f.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			feats = append(feats, "asimd")
		}
		if cpu.ARM64.HasFP {
			feats = append(feats, "fp")
		}
		if cpu.ARM64.HasSVE {
			feats = append(feats, "sve")
		}
	}
	if len(feats) == 0 {
		return runtime.GOARCH
	}
	return runtime.GOARCH + "/" + strings.Join(feats, ",")
}
