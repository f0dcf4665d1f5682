package manifest

import (
	"strings"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/yaml"
)

// DecodeObjects splits a rendered manifest into its YAML documents and
// decodes each into a typed Kubernetes object. Unknown kinds are an error:
// the orchestrator only knows how to create and tear down what it can name.
func DecodeObjects(content []byte) ([]runtime.Object, error) {
	deserializer := scheme.Codecs.UniversalDeserializer()

	var objects []runtime.Object
	for _, document := range strings.Split(string(content), "\n---") {
		if strings.TrimSpace(document) == "" {
			continue
		}
		jsonBytes, err := yaml.YAMLToJSON([]byte(document))
		if err != nil {
			return nil, errors.Wrap(err, "invalid YAML document in manifest")
		}
		object, _, err := deserializer.Decode(jsonBytes, nil, nil)
		if err != nil {
			return nil, errors.Wrap(err, "decoding manifest document")
		}
		objects = append(objects, object)
	}
	if len(objects) == 0 {
		return nil, errors.New("manifest contains no objects")
	}
	return objects, nil
}
