package cluster

import (
	log "github.com/sirupsen/logrus"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/configuration"
)

type KubernetesClientProvider interface {
	Client() kubernetes.Interface
	Config() *rest.Config
}

type ConfigKubernetesClientProvider struct {
	restConfig *rest.Config
	client     kubernetes.Interface
}

func NewKubernetesClientProvider(kubernetesConfig configuration.KubernetesConfiguration) (*ConfigKubernetesClientProvider, error) {
	config, err := loadConfig(kubernetesConfig.KubeconfigPath)
	if err != nil {
		return nil, err
	}

	if kubernetesConfig.QPS > 0 {
		config.QPS = kubernetesConfig.QPS
	}
	if kubernetesConfig.Burst > 0 {
		config.Burst = kubernetesConfig.Burst
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, err
	}

	return &ConfigKubernetesClientProvider{
		restConfig: config,
		client:     client,
	}, nil
}

func (c *ConfigKubernetesClientProvider) Client() kubernetes.Interface {
	return c.client
}

func (c *ConfigKubernetesClientProvider) Config() *rest.Config {
	return c.restConfig
}

func loadConfig(kubeconfigPath string) (*rest.Config, error) {
	if kubeconfigPath != "" {
		return clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	}
	config, err := rest.InClusterConfig()
	if err == rest.ErrNotInCluster {
		log.Info("Running with default client configuration")
		rules := clientcmd.NewDefaultClientConfigLoadingRules()
		overrides := &clientcmd.ConfigOverrides{}
		return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	}
	log.Info("Running with in cluster client configuration")
	return config, err
}
