// SPDX-License-Identifier: EPL-2.0

package utils

// ReflectIndex folds i into [0, n) by mirroring at both edges without
// repeating the edge sample: for n=3 the indexes 3,4,5,6 map to 1,0,1,2.
// The fold is periodic, so any i is valid. n must be positive.
func ReflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}

	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}

	return i
}
