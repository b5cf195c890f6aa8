package detection

import (
	"strconv"

	"github.com/samber/lo"
)

// COCOClasses contains the 80 COCO class names
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// LabelPerson is the canonical person class name.
const LabelPerson = "person"

var (
	animals  = lo.SliceToMap([]string{"bird", "cat", "dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe"}, presence)
	vehicles = lo.SliceToMap([]string{"bicycle", "car", "motorcycle", "bus", "train", "truck"}, presence)
)

func presence(s string) (string, bool) { return s, true }

// ClassName returns the COCO name for a class id, or "class_N" if unknown.
func ClassName(classes []string, id int) string {
	if id >= 0 && id < len(classes) {
		return classes[id]
	}
	return "class_" + strconv.Itoa(id)
}

// IsAnimal returns true if the class is an animal
func IsAnimal(className string) bool {
	return animals[className]
}

// IsVehicle returns true if the class is a road vehicle
func IsVehicle(className string) bool {
	return vehicles[className]
}

// IsPerson returns true if the class is a person
func IsPerson(className string) bool {
	return className == LabelPerson
}
