/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package layers

const (
	MinSampleWidth = 1
	MaxSampleWidth = 4
)

// Samples is a view over a data item body split into fixed width little endian chunks.
// Each chunk is zero extended into int32, a trailing partial chunk is not a sample.
type Samples struct {
	width int
	body  []byte
}

func DecodeSamples(width int, body []byte) (Samples, error) {
	if width < MinSampleWidth || width > MaxSampleWidth {
		return Samples{}, ErrSampleWidth{Width: width}
	}
	return Samples{width: width, body: body}, nil
}

func (s Samples) Width() int {
	return s.width
}

func (s Samples) Len() int {
	if s.width == 0 {
		return 0
	}
	return len(s.body) / s.width
}

// At returns i-th sample, i must be in [0, Len())
func (s Samples) At(i int) int32 {
	chunk := s.body[i*s.width : (i+1)*s.width]
	var value uint32
	for j, b := range chunk {
		value |= uint32(b) << (8 * j)
	}
	return int32(value)
}

// Iterator returns a new iterator positioned before the first sample.
// Every call starts from the beginning.
func (s Samples) Iterator() *SampleIterator {
	return &SampleIterator{samples: s, next: 0}
}

// Values materializes all samples
func (s Samples) Values() []int32 {
	values := make([]int32, 0, s.Len())
	for it := s.Iterator(); it.Next(); {
		values = append(values, it.Value())
	}
	return values
}

type SampleIterator struct {
	samples Samples
	next    int
	value   int32
}

func (it *SampleIterator) Next() bool {
	if it.next >= it.samples.Len() {
		return false
	}
	it.value = it.samples.At(it.next)
	it.next++
	return true
}

func (it *SampleIterator) Value() int32 {
	return it.value
}
