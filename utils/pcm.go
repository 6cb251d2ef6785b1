// SPDX-License-Identifier: EPL-2.0

package utils

import "fmt"

// PCMScale returns the full-scale magnitude of signed PCM at bitDepth.
func PCMScale(bitDepth int) (float32, error) {
	switch bitDepth {
	case 8:
		return 128.0, nil
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
}

// FloatToPCM clamps x to [-1,1] and scales it to a signed integer of the
// given full-scale magnitude. Positive full scale maps to scale-1.
func FloatToPCM(x float32, scale float32) int {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	if x >= 0 {
		return int(x * (scale - 1))
	}
	return int(x * scale)
}
